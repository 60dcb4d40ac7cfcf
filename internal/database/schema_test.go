package database

import (
	"testing"

	"veridoc/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    string
		env     string
		allow   bool
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{name: "hybrid in development", mode: "hybrid", env: "development", runSQL: true, runAuto: true},
		{name: "hybrid in production", mode: "hybrid", env: "production", runSQL: true, runAuto: false},
		{name: "default is hybrid", mode: "", env: "development", runSQL: true, runAuto: true},
		{name: "sql only", mode: "sql", env: "production", runSQL: true, runAuto: false},
		{name: "auto in development", mode: "auto", env: "development", runSQL: false, runAuto: true},
		{name: "auto in production is refused", mode: "auto", env: "production", wantErr: true},
		{name: "auto in production with override", mode: "auto", env: "production", allow: true, runSQL: false, runAuto: true},
		{name: "unknown mode", mode: "bananas", env: "development", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{
				DBSchemaMode:                  tt.mode,
				Env:                           tt.env,
				DBAutoMigrateAllowDestructive: tt.allow,
			}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestRegisteredMigrations(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms, "embedded migrations should be registered")
	assert.Equal(t, 1, ms[0].Version)
	assert.NotEmpty(t, ms[0].UpScript)
	assert.NotEmpty(t, ms[0].DownScript)
}
