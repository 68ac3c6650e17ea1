package conf

// Sentence selection policies.
const (
	SelectionSequential = "sequential"
	SelectionRandom     = "random"
)

// Database backends.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Storage backends.
const (
	StorageGDrive = "gdrive"
	StorageLocal  = "local"
	StorageSFTP   = "sftp"
	StorageFTP    = "ftp"
)
