//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// S_FALSE：当前线程已经初始化过 COM
const sFalse = 1

type comEndpoint struct {
	aev *wca.IAudioEndpointVolume
}

func (e comEndpoint) Scalar() (float32, error) {
	var v float32
	err := e.aev.GetMasterVolumeLevelScalar(&v)
	return v, err
}

func (e comEndpoint) SetScalar(level float32) error {
	return e.aev.SetMasterVolumeLevelScalar(level, nil)
}

func (e comEndpoint) Mute() (bool, error) {
	var muted bool
	err := e.aev.GetMute(&muted)
	return muted, err
}

func (e comEndpoint) SetMute(muted bool) error {
	return e.aev.SetMute(muted, nil)
}

// defaultEndpoint COM 调用必须留在同一个系统线程上
func defaultEndpoint(fn func(Endpoint) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("初始化 COM 失败: %w", err)
		}
	}
	defer ole.CoUninitialize()

	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return fmt.Errorf("创建设备枚举器失败: %w", err)
	}
	defer mmde.Release()

	var mmd *wca.IMMDevice
	if err := mmde.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &mmd); err != nil {
		return fmt.Errorf("获取默认输出设备失败: %w", err)
	}
	defer mmd.Release()

	var aev *wca.IAudioEndpointVolume
	if err := mmd.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &aev); err != nil {
		return fmt.Errorf("激活音量接口失败: %w", err)
	}
	defer aev.Release()

	return fn(comEndpoint{aev: aev})
}
