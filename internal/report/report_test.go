package report_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.yaml.in/yaml/v3"

	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/planner"
	"github.com/skaphos/gitsync/internal/report"
)

func outcome(category, name string, kind model.StateKind, action model.Action) model.SyncOutcome {
	return model.SyncOutcome{
		Target:    model.RepoTarget{Name: name, LocalPath: "/src/" + name, Provenance: category},
		FinalKind: kind,
		Action:    action,
		State:     &model.RepoState{Kind: kind, Branch: "main"},
	}
}

var _ = Describe("ParseFormat", func() {
	DescribeTable("formats",
		func(in string, want report.Format, wantErr bool) {
			got, err := report.ParseFormat(in)
			if wantErr {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("default", "", report.FormatText, false),
		Entry("json", "JSON", report.FormatJSON, false),
		Entry("yaml", " yaml ", report.FormatYAML, false),
		Entry("table", "table", report.Format(""), true),
	)
})

var _ = Describe("Printer", func() {
	var out, errOut *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
	})

	It("streams one line per visible outcome with its log", func() {
		p := report.New(out, errOut, report.Options{})
		updated := outcome("work", "tool", model.StateFastForwardable, model.ActionFetchAndIntegrate)
		updated.State.Behind = 2
		updated.CommitLog = []string{"b2 second", "b1 first"}
		p.Outcome(updated)
		quiet := outcome("work", "calm", model.StateUpToDate, model.ActionNone)
		quiet.Suppressed = true
		p.Outcome(quiet)

		Expect(out.String()).To(ContainSubstring("updated: 2 commits"))
		Expect(out.String()).To(ContainSubstring("    b2 second\n    b1 first\n"))
		Expect(out.String()).NotTo(ContainSubstring("calm"))
	})

	It("writes notices and warnings to the error stream", func() {
		p := report.New(out, errOut, report.Options{})
		p.Notice("no shared ssh session configured")
		p.Warning("work: /gone does not exist, skipping")
		Expect(errOut.String()).To(Equal("note: no shared ssh session configured\nwarning: work: /gone does not exist, skipping\n"))
		Expect(out.Len()).To(BeZero())
	})

	It("hides notices when quiet", func() {
		p := report.New(out, errOut, report.Options{Quiet: true})
		p.Notice("hello")
		Expect(errOut.Len()).To(BeZero())
	})

	It("finishes text runs with a summary table", func() {
		p := report.New(out, errOut, report.Options{})
		summary := planner.Summary{
			Categories: []string{"hub", "work"},
			Outcomes: []model.SyncOutcome{
				outcome("hub", "a", model.StateUpToDate, model.ActionCloned),
				outcome("work", "b", model.StateDiverged, model.ActionNone),
				outcome("work", "c", "", model.ActionFetchFailed),
			},
		}
		Expect(p.Finish(summary)).To(Succeed())
		Expect(out.String()).To(MatchRegexp(`CATEGORY\s+TARGETS\s+UPDATED\s+CLONED\s+ATTENTION\s+FAILED`))
		Expect(out.String()).To(MatchRegexp(`hub\s+1\s+0\s+1\s+0\s+0`))
		Expect(out.String()).To(MatchRegexp(`work\s+2\s+0\s+0\s+1\s+1`))
	})

	It("prints nothing for an empty text run", func() {
		p := report.New(out, errOut, report.Options{})
		Expect(p.Finish(planner.Summary{})).To(Succeed())
		Expect(out.Len()).To(BeZero())
	})

	It("emits a JSON document including suppressed outcomes", func() {
		p := report.New(out, errOut, report.Options{Format: report.FormatJSON})
		calm := outcome("work", "calm", model.StateUpToDate, model.ActionNone)
		calm.Suppressed = true
		p.Outcome(calm)
		p.Warning("careful")
		Expect(out.Len()).To(BeZero())

		Expect(p.Finish(planner.Summary{Categories: []string{"work"}, Outcomes: []model.SyncOutcome{calm}})).To(Succeed())
		var doc report.Document
		Expect(json.Unmarshal(out.Bytes(), &doc)).To(Succeed())
		Expect(doc.Outcomes).To(HaveLen(1))
		Expect(doc.Outcomes[0].Suppressed).To(BeTrue())
		Expect(doc.Totals).To(Equal([]report.Totals{{Category: "work", Targets: 1}}))
		Expect(doc.Warnings).To(Equal([]string{"careful"}))
	})

	It("emits a YAML document", func() {
		p := report.New(out, errOut, report.Options{Format: report.FormatYAML})
		Expect(p.Finish(planner.Summary{Categories: []string{"work"}})).To(Succeed())

		var doc map[string]any
		Expect(yaml.Unmarshal(out.Bytes(), &doc)).To(Succeed())
		Expect(doc).To(HaveKey("outcomes"))
		Expect(doc["totals"]).To(HaveLen(1))
	})
})
