package configtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListenAddress(t *testing.T) {
	tests := []struct {
		name     string
		listen   string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{name: "port with colon", listen: ":3001", wantPort: 3001},
		{name: "bare port", listen: "3001", wantPort: 3001},
		{name: "host and port", listen: "127.0.0.1:9090", wantHost: "127.0.0.1", wantPort: 9090},
		{name: "ipv6", listen: "[::1]:3001", wantHost: "::1", wantPort: 3001},
		{name: "empty", listen: "", wantErr: true},
		{name: "not a port", listen: "localhost:http", wantErr: true},
		{name: "garbage", listen: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := ParseListenAddress(tt.listen)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestValidateListenAddress(t *testing.T) {
	assert.NoError(t, ValidateListenAddress(":3001"))
	assert.Error(t, ValidateListenAddress(":0"))
	assert.Error(t, ValidateListenAddress(":70000"))
}

func TestNormalizeListen(t *testing.T) {
	got, err := NormalizeListen("3001")
	require.NoError(t, err)
	assert.Equal(t, ":3001", got)

	got, err = NormalizeListen("localhost:9090")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9090", got)
}

func TestServerConfigGzipEnabled(t *testing.T) {
	assert.True(t, ServerConfig{}.GzipEnabled())
	off := false
	assert.False(t, ServerConfig{Gzip: &off}.GzipEnabled())
}
