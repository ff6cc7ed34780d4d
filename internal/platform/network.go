package platform

import (
	"context"
	"fmt"
	stdnet "net"
	"slices"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/net"
)

// Dialer 连通性探测使用的拨号函数
type Dialer func(ctx context.Context, network, address string) (stdnet.Conn, error)

// SystemNetwork 网卡列表 + TCP 连通性探测
type SystemNetwork struct {
	probeAddr    string
	probeTimeout time.Duration
	dial         Dialer
}

// NewSystemNetwork 创建网络信息采集器，probeAddr 形如 8.8.8.8:53
func NewSystemNetwork(probeAddr string) *SystemNetwork {
	d := &stdnet.Dialer{}
	return &SystemNetwork{
		probeAddr:    probeAddr,
		probeTimeout: 3 * time.Second,
		dial:         d.DialContext,
	}
}

// Snapshot 采集网卡信息并探测外网连通性
func (n *SystemNetwork) Snapshot(ctx context.Context) (NetworkSnapshot, error) {
	stats, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return NetworkSnapshot{}, fmt.Errorf("获取网卡信息失败: %w", err)
	}

	return NetworkSnapshot{
		Internet:    n.Probe(ctx),
		Interfaces:  activeIPv4(stats),
		CollectedAt: time.Now(),
	}, nil
}

// Probe 在超时时间内尝试建立 TCP 连接
func (n *SystemNetwork) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, n.probeTimeout)
	defer cancel()

	conn, err := n.dial(ctx, "tcp", n.probeAddr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// activeIPv4 只保留处于 up 状态且有 IPv4 地址的网卡
func activeIPv4(stats net.InterfaceStatList) []Interface {
	out := make([]Interface, 0)
	for _, s := range stats {
		if !slices.Contains(s.Flags, "up") {
			continue
		}
		for _, a := range s.Addrs {
			ip := a.Addr
			if i := strings.IndexByte(ip, '/'); i >= 0 {
				ip = ip[:i]
			}
			parsed := stdnet.ParseIP(ip)
			if parsed == nil || parsed.To4() == nil {
				continue
			}
			out = append(out, Interface{Name: s.Name, IP: ip, Status: "up"})
		}
	}
	return out
}
