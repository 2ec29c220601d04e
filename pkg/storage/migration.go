package storage

// Migration pins the schema version of the broadcast database so hand
// written migrations only run once, see customMigrate. The table holds
// a single row.
type Migration struct {
	ID        string `gorm:"primarykey"`
	CreatedAt int64
	UpdatedAt int64

	Version int `gorm:"not null;default:0"`
}
