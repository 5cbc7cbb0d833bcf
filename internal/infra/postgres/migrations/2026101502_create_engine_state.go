package migrations

import (
	_ "embed"
)

//go:embed sql/0002_create_engine_state.sql
var createEngineStateSQL string

func init() {
	Migrations.MustRegister(
		exec(createEngineStateSQL),
		exec(`DROP TABLE IF EXISTS engine_state`),
	)
}
