package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{
			name: "url form",
			in:   "mysql://feed:pw@127.0.0.1:3306/feed",
			want: "feed:pw@tcp(127.0.0.1:3306)/feed?charset=utf8mb4&parseTime=true",
		},
		{
			name: "jdbc prefix with overrides",
			in:   "jdbc:mysql://x:y@db:3306/feed?charset=latin1",
			user: "ops", pass: "secret",
			want: "ops:secret@tcp(db:3306)/feed?charset=latin1&parseTime=true",
		},
		{
			name: "native dsn untouched",
			in:   "feed:pw@tcp(127.0.0.1:3306)/feed?parseTime=true",
			want: "feed:pw@tcp(127.0.0.1:3306)/feed?parseTime=true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestDialector_UnsupportedDriver(t *testing.T) {
	_, err := Dialector(Opts{Driver: "mongodb"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	d, err := Dialector(Opts{Driver: "postgres", DSN: "postgres://localhost/feed"})
	assert.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}
