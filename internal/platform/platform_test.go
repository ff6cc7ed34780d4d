package platform

import (
	"context"
	"errors"
	stdnet "net"
	"os/exec"
	"testing"

	"github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(out string, err error, calls *[]recordedCall) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
}

func TestParseAmixer(t *testing.T) {
	out := `Simple mixer control 'Master',0
  Capabilities: pvolume pswitch
  Front Left: Playback 49000 [75%] [-12.00dB] [on]
  Front Right: Playback 49000 [75%] [-12.00dB] [on]`

	level, muted, err := parseAmixer(out)
	require.NoError(t, err)
	assert.Equal(t, 75, level)
	assert.False(t, muted)

	_, muted, err = parseAmixer("Mono: Playback 0 [0%] [off]")
	require.NoError(t, err)
	assert.True(t, muted)

	_, _, err = parseAmixer("garbage")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAmixerSetVolumeClamps(t *testing.T) {
	var calls []recordedCall
	a := NewAudio("linux", fakeRunner("", nil, &calls))

	require.NoError(t, a.SetVolume(context.Background(), 140))
	require.Len(t, calls, 1)
	assert.Equal(t, "amixer", calls[0].name)
	assert.Equal(t, []string{"-q", "-M", "set", "Master", "100%"}, calls[0].args)
}

func TestAmixerFailureIsUnavailable(t *testing.T) {
	var calls []recordedCall
	a := NewAudio("linux", fakeRunner("", errors.New("exit status 1"), &calls))

	_, err := a.Volume(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, a.SetMuted(context.Background(), true), ErrUnavailable)
}

func TestOSAScriptAudio(t *testing.T) {
	var calls []recordedCall
	a := NewAudio("darwin", fakeRunner("63\n", nil, &calls))

	level, err := a.Volume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 63, level)

	require.NoError(t, a.SetMuted(context.Background(), true))
	assert.Equal(t, []string{"-e", "set volume output muted true"}, calls[1].args)
}

type fakeEndpoint struct {
	level float32
	muted bool
	err   error
}

func (e *fakeEndpoint) Scalar() (float32, error) { return e.level, e.err }
func (e *fakeEndpoint) Mute() (bool, error) { return e.muted, e.err }
func (e *fakeEndpoint) SetScalar(v float32) error { e.level = v; return e.err }
func (e *fakeEndpoint) SetMute(m bool) error { e.muted = m; return e.err }

func TestWCAAudio(t *testing.T) {
	ep := &fakeEndpoint{level: 0.63}
	opened := 0
	a := NewWCAAudio(func(fn func(Endpoint) error) error {
		opened++
		return fn(ep)
	})
	ctx := context.Background()

	level, err := a.Volume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 63, level)

	require.NoError(t, a.SetVolume(ctx, 140))
	assert.Equal(t, float32(1), ep.level)
	require.NoError(t, a.SetVolume(ctx, 25))
	assert.InDelta(t, 0.25, ep.level, 1e-6)

	require.NoError(t, a.SetMuted(ctx, true))
	muted, err := a.Muted(ctx)
	require.NoError(t, err)
	assert.True(t, muted)
	assert.Equal(t, 5, opened)
}

func TestWCAAudioFailures(t *testing.T) {
	ep := &fakeEndpoint{err: errors.New("0x88890004 device invalidated")}
	a := NewWCAAudio(func(fn func(Endpoint) error) error { return fn(ep) })
	_, err := a.Volume(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	a = NewWCAAudio(func(func(Endpoint) error) error { return ErrUnsupported })
	assert.ErrorIs(t, a.SetMuted(context.Background(), true), ErrUnsupported)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a = NewWCAAudio(func(func(Endpoint) error) error {
		t.Fatal("session opened after cancel")
		return nil
	})
	assert.ErrorIs(t, a.SetVolume(ctx, 10), context.Canceled)

	assert.IsType(t, &WCAAudio{}, NewAudio("windows", nil))
}

func TestUnsupportedAudio(t *testing.T) {
	a := NewAudio("plan9", nil)
	_, err := a.Volume(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestAppTable(t *testing.T) {
	apps := DefaultApps("windows").Merge(map[string]string{"vscode": "code.exe"})
	assert.Equal(t, "code.exe", apps["vscode"])
	assert.Equal(t, "calc.exe", apps["calculator"])

	names := apps.Names()
	assert.Equal(t, "command prompt", names[0])

	_, ok := DefaultApps("windows")["vscode"]
	assert.False(t, ok)
}

func TestExecLauncherRejectsUnlisted(t *testing.T) {
	l := NewExecLauncher("linux", AppTable{"calculator": "gnome-calculator"}, zap.NewNop())
	var started []*exec.Cmd
	l.start = func(cmd *exec.Cmd) error {
		started = append(started, cmd)
		return nil
	}

	err := l.Launch(context.Background(), "rm")
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.Empty(t, started)

	require.NoError(t, l.Launch(context.Background(), "gnome-calculator"))
	require.Len(t, started, 1)
	assert.Equal(t, []string{"gnome-calculator"}, started[0].Args)
}

func TestExecLauncherDarwinUsesOpen(t *testing.T) {
	l := NewExecLauncher("darwin", AppTable{"calculator": "Calculator"}, zap.NewNop())
	var args []string
	l.start = func(cmd *exec.Cmd) error {
		args = cmd.Args
		return nil
	}

	require.NoError(t, l.Launch(context.Background(), "Calculator"))
	assert.Equal(t, []string{"open", "-a", "Calculator"}, args)
}

func TestActiveIPv4(t *testing.T) {
	stats := net.InterfaceStatList{
		{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: net.InterfaceAddrList{{Addr: "127.0.0.1/8"}, {Addr: "::1/128"}}},
		{Name: "eth0", Flags: []string{"up", "broadcast"}, Addrs: net.InterfaceAddrList{{Addr: "192.168.1.20/24"}}},
		{Name: "wlan0", Flags: []string{"broadcast"}, Addrs: net.InterfaceAddrList{{Addr: "10.0.0.5/24"}}},
	}

	got := activeIPv4(stats)
	assert.Equal(t, []Interface{
		{Name: "lo", IP: "127.0.0.1", Status: "up"},
		{Name: "eth0", IP: "192.168.1.20", Status: "up"},
	}, got)
}

func TestProbe(t *testing.T) {
	n := NewSystemNetwork("8.8.8.8:53")

	n.dial = func(ctx context.Context, network, address string) (stdnet.Conn, error) {
		c1, c2 := stdnet.Pipe()
		c2.Close()
		return c1, nil
	}
	assert.True(t, n.Probe(context.Background()))

	n.dial = func(ctx context.Context, network, address string) (stdnet.Conn, error) {
		return nil, errors.New("network unreachable")
	}
	assert.False(t, n.Probe(context.Background()))
}

func TestNoPower(t *testing.T) {
	var p Power = NoPower{}
	assert.ErrorIs(t, p.Shutdown(context.Background()), ErrUnsupported)
	assert.ErrorIs(t, p.Restart(context.Background()), ErrUnsupported)
	assert.ErrorIs(t, p.Sleep(context.Background()), ErrUnsupported)
}
