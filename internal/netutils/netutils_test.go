package netutils

import (
	"testing"

	"github.com/companyzero/soundcore/internal/assert"
)

func TestFamilies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host    string
		want    []string
		wantErr bool
	}{
		{host: "", want: []string{"tcp4", "tcp6"}},
		{host: "127.0.0.1", want: []string{"tcp4"}},
		{host: "::1", want: []string{"tcp6"}},
		{host: "fe80::1%eth0", want: []string{"tcp6"}},
		{host: "localhost", wantErr: true},
	}
	for _, tc := range tests {
		got, err := families(tc.host)
		if tc.wantErr {
			assert.NonNilErr(t, err)
			continue
		}
		assert.NilErr(t, err)
		assert.DeepEqual(t, got, tc.want)
	}
}

func TestListen(t *testing.T) {
	t.Parallel()

	ls, err := Listen("127.0.0.1:0")
	assert.NilErr(t, err)
	assert.DeepEqual(t, len(ls), 1)
	assert.DeepEqual(t, ls[0].Addr().Network(), "tcp")
	assert.NilErr(t, ls[0].Close())

	_, err = Listen("127.0.0.1")
	assert.NonNilErr(t, err)
}
