// Package discovery 在局域网内通过 mDNS 广播服务，供移动端自动发现。
package discovery

import (
	"fmt"
	"runtime"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

// Options 广播参数
type Options struct {
	Instance string
	Service  string
	Domain   string
	Port     int
	Version  string
}

// TXT 广播的附加记录
func (o Options) TXT() []string {
	return []string{
		"version=" + o.Version,
		"platform=" + runtime.GOOS,
		"path=/command",
		"ws=/ws",
	}
}

// Advertiser 已注册的 mDNS 服务
type Advertiser struct {
	server *zeroconf.Server
	logger *zap.Logger
}

// Register 注册 mDNS 服务
func Register(opts Options, logger *zap.Logger) (*Advertiser, error) {
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("mDNS 端口非法: %d", opts.Port)
	}
	server, err := zeroconf.Register(opts.Instance, opts.Service, opts.Domain, opts.Port, opts.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("注册 mDNS 服务失败: %w", err)
	}
	logger.Info("mDNS 服务已广播",
		zap.String("instance", opts.Instance),
		zap.String("service", opts.Service),
		zap.String("domain", opts.Domain),
		zap.Int("port", opts.Port))
	return &Advertiser{server: server, logger: logger}, nil
}

// Shutdown 停止广播
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.logger.Info("mDNS 服务已停止")
}
