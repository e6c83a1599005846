// Package database provides the application database.
//
// The database only holds application state: audit events and web
// sessions. Uploaded highlights files are handled by the library package on
// private working copies and never touch this database.
//
//	db, err := database.NewDatabase("./erratas.db", logger)
//	auditRepo := audit.NewRepository(db.DB)
package database
