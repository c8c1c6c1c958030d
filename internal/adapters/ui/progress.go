// Package ui показывает ход выгрузки в терминале.
package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"telegram-text-export/internal/ports"
)

// Task — приемник статистики одной выгрузки.
type Task interface {
	ports.Stats
	// Complete отмечает выгрузку завершенной.
	Complete()
	// Fail отмечает выгрузку прерванной.
	Fail(err error)
}

// Progress создает задачи с индикатором mpb или, вне терминала, с итоговой строкой в out.
type Progress struct {
	progress       *mpb.Progress
	out            io.Writer
	nonInteractive bool
}

// NewProgress создает индикатор хода выгрузки шириной width.
func NewProgress(out io.Writer, nonInteractive bool, width int) *Progress {
	p := &Progress{out: out, nonInteractive: nonInteractive}
	if !nonInteractive {
		p.progress = mpb.New(mpb.WithOutput(out), mpb.WithWidth(width))
	}
	return p
}

// Start добавляет задачу с именем name.
func (p *Progress) Start(name string) Task {
	if p.nonInteractive {
		return &summaryTask{name: name, out: p.out, startTime: time.Now()}
	}

	task := &barTask{}
	task.bar = p.progress.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1}),
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf("%d files", task.files.Load())
			}, decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Current(decor.SizeB1024(0), "% .2f", decor.WCSyncSpace), "done"),
		),
	)
	return task
}

// Wait дожидается отрисовки всех завершенных задач.
func (p *Progress) Wait() {
	if p.nonInteractive {
		return
	}
	p.progress.Wait()
}

type barTask struct {
	bar   *mpb.Bar
	files atomic.Int64
}

func (t *barTask) IncrementFiles() {
	t.files.Add(1)
}

func (t *barTask) IncrementBytes(n int) {
	t.bar.IncrBy(n)
}

func (t *barTask) Complete() {
	t.bar.SetTotal(-1, true)
}

func (t *barTask) Fail(error) {
	t.bar.Abort(false)
}

type summaryTask struct {
	name      string
	out       io.Writer
	startTime time.Time
	files     atomic.Int64
	bytes     atomic.Int64
}

func (t *summaryTask) IncrementFiles() {
	t.files.Add(1)
}

func (t *summaryTask) IncrementBytes(n int) {
	t.bytes.Add(int64(n))
}

func (t *summaryTask) Complete() {
	fmt.Fprintf(t.out, "Finished: %s | Files: %d | Size: %s | Time: %s\n",
		t.name,
		t.files.Load(),
		formatSize(t.bytes.Load()),
		time.Since(t.startTime).Round(time.Millisecond),
	)
}

func (t *summaryTask) Fail(err error) {
	fmt.Fprintf(t.out, "Failed: %s | Files: %d | Error: %v\n", t.name, t.files.Load(), err)
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
