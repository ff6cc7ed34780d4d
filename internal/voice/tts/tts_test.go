package tts

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	name string
	args []string
	err  error
}

func (r *recorder) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return nil, r.err
}

func onlyHas(names ...string) LookPath {
	return func(file string) (string, error) {
		for _, n := range names {
			if n == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestAutoSelectsByOS(t *testing.T) {
	rec := &recorder{}
	opts := Options{Rate: 180, Volume: 0.9}

	s, err := New("linux", opts, rec.run, onlyHas("espeak-ng"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, EngineEspeak, s.Name())

	s, err = New("darwin", opts, rec.run, onlyHas("say", "espeak"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, EngineSay, s.Name())

	s, err = New("windows", opts, rec.run, onlyHas("powershell.exe"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, EngineSAPI, s.Name())

	_, err = New("linux", opts, rec.run, onlyHas(), zap.NewNop())
	assert.ErrorIs(t, err, ErrNoEngine)

	s, err = New("linux", Options{Engine: "none"}, rec.run, onlyHas(), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopSpeaker{}, s)

	_, err = New("linux", Options{Engine: "festival"}, rec.run, onlyHas(), zap.NewNop())
	assert.Error(t, err)
}

func TestEspeakArgv(t *testing.T) {
	rec := &recorder{}
	s, err := New("linux", Options{Rate: 160, Volume: 0.5, Voice: "en-us"}, rec.run, onlyHas("espeak"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "  -rf; rm it  "))
	assert.Equal(t, "espeak", rec.name)
	assert.Equal(t, []string{"-s", "160", "-a", "100", "-v", "en-us", "--", "-rf; rm it"}, rec.args)
}

func TestSayArgv(t *testing.T) {
	rec := &recorder{}
	s, err := New("darwin", Options{Engine: "say", Rate: 200}, rec.run, onlyHas("say"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "Hello"))
	assert.Equal(t, []string{"-r", "200", "--", "Hello"}, rec.args)
}

func decodePS(t *testing.T, encoded string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return string(utf16.Decode(units))
}

func TestSAPIQuotesText(t *testing.T) {
	rec := &recorder{}
	s, err := New("windows", Options{Rate: 180, Volume: 1}, rec.run, onlyHas("powershell"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "it's done'); Remove-Item C:\\"))
	require.Len(t, rec.args, 4)
	assert.Equal(t, "-EncodedCommand", rec.args[2])

	script := decodePS(t, rec.args[3])
	assert.Contains(t, script, "$s.Rate = 0;")
	assert.Contains(t, script, "$s.Volume = 100;")
	assert.Contains(t, script, "$s.Speak('it''s done''); Remove-Item C:\\')")
}

func TestSpeakEmptyAndFailure(t *testing.T) {
	rec := &recorder{err: errors.New("exit status 1")}
	s, err := New("linux", Options{Rate: 180}, rec.run, onlyHas("espeak-ng"), zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, s.Speak(context.Background(), "   "))
	assert.Empty(t, rec.name)
	assert.Error(t, s.Speak(context.Background(), "hello"))
}

func TestSapiRate(t *testing.T) {
	assert.Equal(t, 0, sapiRate(180))
	assert.Equal(t, 10, sapiRate(500))
	assert.Equal(t, -9, sapiRate(0))
	assert.Equal(t, -10, sapiRate(-50))
}
