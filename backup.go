package terrastore

import "context"

// BackupOperation exports a bucket to, or imports it from, a file on the server.
// Both directions complete or fail as a whole; no progress is reported.
type BackupOperation struct {
	client    *Client
	bucket    string
	file      string
	secretKey string
}

// SecretKey sets the key the server requires to authorize backups.
func (o BackupOperation) SecretKey(key string) BackupOperation {
	o.secretKey = key
	return o
}

// Build validates the operation and returns its context.
func (o BackupOperation) Build() (BackupContext, error) {
	if err := validateName("bucket", o.bucket); err != nil {
		return BackupContext{}, err
	}
	if err := validateName("backup file", o.file); err != nil {
		return BackupContext{}, err
	}
	return BackupContext{bucket: o.bucket, file: o.file, secretKey: o.secretKey}, nil
}

// Export writes the bucket's values to the backup file.
func (o BackupOperation) Export(ctx context.Context) error {
	c, err := o.Build()
	if err != nil {
		return err
	}
	return o.client.exec(opBackup, c.bucket, "", func() error {
		return o.client.conn.ExportBackup(ctx, c)
	})
}

// Import loads the values stored in the backup file into the bucket.
func (o BackupOperation) Import(ctx context.Context) error {
	c, err := o.Build()
	if err != nil {
		return err
	}
	return o.client.exec(opBackup, c.bucket, "", func() error {
		return o.client.conn.ImportBackup(ctx, c)
	})
}
