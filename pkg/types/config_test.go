package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   error
	}{
		{"sqlite with data dir", Config{Backend: BackendSQLite, DataDir: t.TempDir()}, nil},
		{"sqlite defaults to working dir", Config{Backend: BackendSQLite}, nil},
		{"missing backend", Config{DataDir: "data"}, ErrBackendEmpty},
		{"backend names are case sensitive", Config{Backend: "SQLite"}, ErrBackendUnknown},
		{"browser storage is not a backend", Config{Backend: "localstorage"}, ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
