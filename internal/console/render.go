package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer 终端输出样式
type Renderer struct {
	out       io.Writer
	mode      string
	title     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	notice    lipgloss.Style
	err       lipgloss.Style
}

// NewRenderer 创建输出渲染器，颜色能力按 out 自动探测
func NewRenderer(out io.Writer, mode string) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:       out,
		mode:      mode,
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		user:      r.NewStyle().Foreground(lipgloss.Color("245")),
		assistant: r.NewStyle().Foreground(lipgloss.Color("42")),
		notice:    r.NewStyle().Italic(true).Foreground(lipgloss.Color("214")),
		err:       r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Banner 启动横幅
func (r *Renderer) Banner(muted bool) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, r.title.Render("MAC Assistant - "+r.mode+" Mode"))
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "Type or say your commands, 'quit' to exit.")
	if muted {
		fmt.Fprintln(r.out, r.notice.Render("Text-to-speech is disabled. Type 'unmute' to enable."))
	} else {
		fmt.Fprintln(r.out, r.notice.Render("Text-to-speech is enabled. Type 'mute' to disable or 'unmute' to enable."))
	}
}

// Prompt 输入提示
func (r *Renderer) Prompt() {
	fmt.Fprint(r.out, "\nMAC> ")
}

// User 回显用户输入
func (r *Renderer) User(text string) {
	fmt.Fprintln(r.out, r.user.Render("You: "+text))
}

// Assistant 助手回复
func (r *Renderer) Assistant(text string) {
	fmt.Fprintln(r.out, r.assistant.Render("MAC: "+text))
}

// Notice 提示信息
func (r *Renderer) Notice(text string) {
	fmt.Fprintln(r.out, r.notice.Render(text))
}

// Error 错误信息
func (r *Renderer) Error(text string) {
	fmt.Fprintln(r.out, r.err.Render("MAC: "+text))
}
