// Package database provides SQLite storage for the photo catalog.
//
// Assets are stored per folder: a [Library] is a view of the rows belonging
// to one selected folder and offers the transactional operations the catalog
// needs (UpsertAssets, DeleteAssets, LoadAll, UpdateFlags). Modification
// times are stored with nanosecond precision so that a catalog reloaded from
// the database compares equal to a fresh stat of an unchanged file.
//
// A small metadata table records the last selected folder.
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
