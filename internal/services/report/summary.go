package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"idcardocr/internal/services/recognize/domain"
)

var (
	rule  = strings.Repeat("=", 80)
	thin  = strings.Repeat("-", 80)
	rule6 = strings.Repeat("=", 60)
	thin6 = strings.Repeat("-", 60)
)

// Files names the artifacts referenced at the end of the summary
type Files struct {
	CSV     string
	Log     string
	Summary string
}

// RenderSummary writes the bilingual summary of b
func RenderSummary(w io.Writer, b domain.Batch, files Files, generated time.Time) error {
	st := b.Stats
	p := &printer{w: w}

	p.line(rule)
	p.line("ID CARD OCR PROCESSING SUMMARY")
	p.f("Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	if b.RunID != "" {
		p.f("Run ID: %s\n", b.RunID)
	}
	if b.Cancelled {
		p.line("已取消 (Cancelled): 部分结果 (partial results)")
	}
	p.line(rule)
	p.line("")

	p.section("【总体统计 / OVERALL STATISTICS】")
	p.f("总处理人数 (Total Persons):              %d\n", st.TotalPersons)
	p.f("API调用总数 (Total API Calls):           %d\n", st.TotalAPICalls)
	p.f("成功调用数 (Successful Calls):           %d\n", st.SuccessfulCalls)
	p.f("失败调用数 (Failed Calls):               %d\n", st.FailedCalls)
	p.f("成功率 (Success Rate):                   %.1f%%\n", st.SuccessRate())
	if b.Elapsed > 0 {
		p.f("耗时 (Elapsed):                          %.2fs\n", b.Elapsed.Seconds())
	}
	p.line("")

	p.section("【详细结果 / DETAILED RESULTS】")
	p.f("✓ 正反面均成功 (Both Sides Success):      %d (%.1f%%)\n", st.BothSidesSuccess, st.Share(st.BothSidesSuccess))
	p.f("⚠ 仅正面成功 (Front Only):                %d (%.1f%%)\n", st.FrontOnlySuccess, st.Share(st.FrontOnlySuccess))
	p.f("⚠ 仅背面成功 (Back Only):                 %d (%.1f%%)\n", st.BackOnlySuccess, st.Share(st.BackOnlySuccess))
	p.f("✗ 正反面均失败 (Both Sides Failed):       %d (%.1f%%)\n", st.BothSidesFailed, st.Share(st.BothSidesFailed))
	p.line("")

	p.section("【缺失图像 / MISSING IMAGES】")
	p.f("缺失正面 (Missing Front):                 %d\n", st.FrontMissing)
	p.f("缺失背面 (Missing Back):                  %d\n", st.BackMissing)
	p.line("")

	var failed, partial []domain.PersonResult
	for _, r := range b.Results {
		switch {
		case r.Overall == domain.OverallFailed:
			failed = append(failed, r)
		case r.Overall.Partial():
			partial = append(partial, r)
		}
	}

	p.section("【失败项目列表 / FAILED ITEMS】")
	if len(failed) == 0 {
		p.line("无失败项目 (No failed items)")
		p.line("")
	} else {
		p.f("共 %d 个失败项目:\n\n", len(failed))
		for i, r := range failed {
			p.f("%d. %s\n", i+1, r.Person)
			p.f("   正面状态 (Front): %s%s\n", r.Front.Status, suffix(" - %s", r.Front.Error))
			p.f("   背面状态 (Back):  %s%s\n\n", r.Back.Status, suffix(" - %s", r.Back.Error))
		}
	}

	if len(partial) > 0 {
		p.section("【部分成功项目 / PARTIAL SUCCESS ITEMS】")
		p.f("共 %d 个部分成功项目:\n\n", len(partial))
		for i, r := range partial {
			p.f("%d. %s - %s\n", i+1, r.Person, r.Overall)
			p.f("   正面: %s%s\n", r.Front.Status, suffix(" (%s)", r.Front.Error))
			p.f("   背面: %s%s\n\n", r.Back.Status, suffix(" (%s)", r.Back.Error))
		}
	}

	p.section("【输出文件 / OUTPUT FILES】")
	p.f("详细结果 (Detailed Results): %s\n", files.CSV)
	p.f("处理日志 (Processing Log):   %s\n", files.Log)
	p.f("本摘要 (This Summary):        %s\n", files.Summary)
	p.line("")

	p.line(rule)
	p.line("处理完成 (Processing Completed)")
	p.line(rule)
	return p.err
}

// WriteSummary renders the summary into files.Summary
func WriteSummary(b domain.Batch, files Files, generated time.Time) error {
	return writeAtomic(files.Summary, func(w io.Writer) error {
		return RenderSummary(w, b, files, generated)
	})
}

func suffix(format, s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf(format, s)
}

// printer remembers the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) f(format string, a ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func (p *printer) line(s string) { p.f("%s\n", s) }

func (p *printer) section(title string) {
	p.line(title)
	p.line(thin)
}
