package deeplink

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	want := uuid.MustParse("3fa85f64-5717-4562-b3fc-2c963f66afa6")

	tests := []struct {
		name    string
		uri     string
		wantErr error
	}{
		{name: "valid", uri: "sharedprompt://creation/3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		{name: "valid upper-case scheme", uri: "SharedPrompt://creation/3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		{name: "wrong scheme", uri: "http://creation/3fa85f64-5717-4562-b3fc-2c963f66afa6", wantErr: ErrSchemeMismatch},
		{name: "wrong host", uri: "sharedprompt://other/3fa85f64-5717-4562-b3fc-2c963f66afa6", wantErr: ErrHostMismatch},
		{name: "bad id", uri: "sharedprompt://creation/not-a-uuid", wantErr: ErrInvalidID},
		{name: "missing id", uri: "sharedprompt://creation/", wantErr: ErrMalformedPath},
		{name: "extra segment", uri: "sharedprompt://creation/3fa85f64-5717-4562-b3fc-2c963f66afa6/more", wantErr: ErrMalformedPath},
		{name: "no scheme", uri: "creation/3fa85f64-5717-4562-b3fc-2c963f66afa6", wantErr: ErrUnparsableURI},
		{name: "garbage", uri: "%%%", wantErr: ErrUnparsableURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.uri, DefaultScheme)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestBuildRoundTrip(t *testing.T) {
	id := uuid.New()
	got, err := Parse(Build("", id), "")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
