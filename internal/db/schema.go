package db

import _ "embed"

//go:embed schema.sql
var Schema string

// Source is the command a run was recorded by.
type Source string

const (
	SOURCE_FETCH   Source = "fetch"
	SOURCE_EXTRACT Source = "extract"
)
