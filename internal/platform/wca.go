package platform

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Endpoint 默认输出设备的音量接口，音量是 0-1 的标量
type Endpoint interface {
	Scalar() (float32, error)
	SetScalar(level float32) error
	Mute() (bool, error)
	SetMute(muted bool) error
}

// EndpointSession 打开默认输出设备，调用 fn 后释放
type EndpointSession func(fn func(Endpoint) error) error

// WCAAudio 通过 Windows Core Audio（IAudioEndpointVolume）控制音量
type WCAAudio struct {
	session EndpointSession
}

// NewWCAAudio 创建 Core Audio 音量控制
func NewWCAAudio(session EndpointSession) *WCAAudio {
	return &WCAAudio{session: session}
}

func (a *WCAAudio) with(ctx context.Context, fn func(Endpoint) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.session(fn); err != nil {
		if errors.Is(err, ErrUnsupported) {
			return err
		}
		return fmt.Errorf("%w: core audio: %v", ErrUnavailable, err)
	}
	return nil
}

// Volume 当前音量
func (a *WCAAudio) Volume(ctx context.Context) (int, error) {
	var level int
	err := a.with(ctx, func(ep Endpoint) error {
		v, err := ep.Scalar()
		level = int(math.Round(float64(v) * 100))
		return err
	})
	return level, err
}

// SetVolume 设置音量
func (a *WCAAudio) SetVolume(ctx context.Context, level int) error {
	return a.with(ctx, func(ep Endpoint) error {
		return ep.SetScalar(float32(clampLevel(level)) / 100)
	})
}

// Muted 是否静音
func (a *WCAAudio) Muted(ctx context.Context) (bool, error) {
	var muted bool
	err := a.with(ctx, func(ep Endpoint) error {
		var err error
		muted, err = ep.Mute()
		return err
	})
	return muted, err
}

// SetMuted 设置静音
func (a *WCAAudio) SetMuted(ctx context.Context, muted bool) error {
	return a.with(ctx, func(ep Endpoint) error {
		return ep.SetMute(muted)
	})
}
