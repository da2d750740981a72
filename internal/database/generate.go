package database

// This file documents code generation for the database package.
//
// To regenerate the schema constant from the migration files:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
