package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURI(t *testing.T) {
	tests := []struct {
		name    string
		scheme  string
		id      string
		want    string
		wantErr error
	}{
		{"default scheme", "", "999888777", "anydesk:999888777", nil},
		{"spaces removed", "anydesk", " 999 888 777 ", "anydesk:999888777", nil},
		{"custom scheme", "rustdesk", "123", "rustdesk:123", nil},
		{"empty id", "anydesk", "  ", "", ErrEmptyTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URI(tt.scheme, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
