// Package stt 语音识别，通过 websocket 把 PCM 音频流式发送给 Vosk server。
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrClosed 识别连接在音频结束前断开
var ErrClosed = errors.New("识别连接已关闭")

// Event 识别事件，Final 为 false 时是中间结果
type Event struct {
	Text  string
	Final bool
	Err   error
}

// Recognizer 音频流 -> 识别事件，channel 在结束时关闭
type Recognizer interface {
	Listen(ctx context.Context, audio io.Reader) (<-chan Event, error)
}

// VoskRecognizer Vosk server 客户端
type VoskRecognizer struct {
	url        string
	sampleRate int
	chunkSize  int
	dialer     *websocket.Dialer
	logger     *zap.Logger
}

// NewVoskRecognizer 创建识别器，sampleRate 需与音频源一致
func NewVoskRecognizer(url string, sampleRate int, logger *zap.Logger) *VoskRecognizer {
	return &VoskRecognizer{
		url:        url,
		sampleRate: sampleRate,
		chunkSize:  8000,
		dialer:     &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger:     logger,
	}
}

// Listen 建立连接并开始识别；audio 读到 EOF 后发送 eof，等待最终结果
func (r *VoskRecognizer) Listen(ctx context.Context, audio io.Reader) (<-chan Event, error) {
	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("连接 Vosk server 失败: %w", err)
	}

	config := fmt.Sprintf(`{"config": {"sample_rate": %d}}`, r.sampleRate)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(config)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("发送识别配置失败: %w", err)
	}

	events := make(chan Event, 16)
	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { conn.Close() }) }

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	eofSent := make(chan struct{})
	go r.pump(conn, audio, eofSent, closeConn)
	go func() {
		defer close(events)
		defer close(done)
		defer closeConn()
		r.read(ctx, conn, events, eofSent)
	}()

	return events, nil
}

// pump 把音频切块发送，读完后发送 eof
func (r *VoskRecognizer) pump(conn *websocket.Conn, audio io.Reader, eofSent chan<- struct{}, closeConn func()) {
	buf := make([]byte, r.chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				r.logger.Debug("发送音频失败", zap.Error(werr))
				closeConn()
				return
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Warn("读取音频失败", zap.Error(err))
			break
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		r.logger.Debug("发送 eof 失败", zap.Error(err))
		closeConn()
		return
	}
	close(eofSent)
}

// read 解析 {"partial": ...} 与 {"text": ...}
func (r *VoskRecognizer) read(ctx context.Context, conn *websocket.Conn, events chan<- Event, eofSent <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-eofSent:
				// eof 之后服务端关闭连接是正常结束
				return
			default:
			}
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			r.logger.Warn("识别连接中断", zap.Error(err))
			emit(ctx, events, Event{Err: fmt.Errorf("%w: %v", ErrClosed, err)})
			return
		}

		ev, ok := parse(data)
		if !ok {
			continue
		}
		if !emit(ctx, events, ev) {
			return
		}
	}
}

func parse(data []byte) (Event, bool) {
	if !gjson.ValidBytes(data) {
		return Event{}, false
	}
	if text := gjson.GetBytes(data, "text"); text.Exists() {
		t := strings.TrimSpace(text.String())
		return Event{Text: t, Final: true}, t != ""
	}
	if partial := gjson.GetBytes(data, "partial"); partial.Exists() {
		t := strings.TrimSpace(partial.String())
		return Event{Text: t}, t != ""
	}
	return Event{}, false
}

func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// CommandSource 启动录音命令，返回其标准输出（原始 PCM）
func CommandSource(ctx context.Context, argv []string) (io.ReadCloser, func() error, error) {
	if len(argv) == 0 {
		return nil, nil, errors.New("录音命令为空")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("创建录音管道失败: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("启动录音命令失败: %w", err)
	}
	return out, cmd.Wait, nil
}
