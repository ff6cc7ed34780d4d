package console

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mac-assistant/mac-assistant-go/internal/voice/stt"
)

// ScannerSource 逐行读取键盘输入
type ScannerSource struct {
	scanner *bufio.Scanner
	ui      *Renderer
}

// NewScannerSource 创建键盘输入源，ui 不为 nil 时每次读取前打印提示符
func NewScannerSource(in io.Reader, ui *Renderer) *ScannerSource {
	return &ScannerSource{scanner: bufio.NewScanner(in), ui: ui}
}

// Next 读取下一行
func (s *ScannerSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.ui != nil {
		s.ui.Prompt()
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("读取键盘输入失败: %w", err)
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// VoiceSource 把识别器的最终结果当作输入行，中间结果只用于显示
type VoiceSource struct {
	events    <-chan stt.Event
	onPartial func(string)
}

// NewVoiceSource 在 audio 上开始识别
func NewVoiceSource(ctx context.Context, rec stt.Recognizer, audio io.Reader, onPartial func(string)) (*VoiceSource, error) {
	events, err := rec.Listen(ctx, audio)
	if err != nil {
		return nil, err
	}
	return &VoiceSource{events: events, onPartial: onPartial}, nil
}

// Next 阻塞到下一个最终识别结果
func (v *VoiceSource) Next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-v.events:
			if !ok {
				return "", io.EOF
			}
			if ev.Err != nil {
				return "", ev.Err
			}
			if ev.Final {
				return ev.Text, nil
			}
			if v.onPartial != nil {
				v.onPartial(ev.Text)
			}
		}
	}
}
