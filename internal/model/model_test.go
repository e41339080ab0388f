package model_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gitsync/internal/model"
)

var _ = Describe("Action", func() {
	DescribeTable("Failed",
		func(action model.Action, want bool) {
			Expect(action.Failed()).To(Equal(want))
		},
		Entry("none", model.ActionNone, false),
		Entry("fetch only", model.ActionFetchOnly, false),
		Entry("integrated", model.ActionFetchAndIntegrate, false),
		Entry("cloned", model.ActionCloned, false),
		Entry("skipped", model.ActionSkipped, false),
		Entry("clone failed", model.ActionCloneFailed, true),
		Entry("fetch failed", model.ActionFetchFailed, true),
		Entry("integrate failed", model.ActionIntegrateFailed, true),
	)
})

var _ = Describe("SyncOutcome JSON", func() {
	It("uses stable snake_case keys and omits empty detail", func() {
		outcome := model.SyncOutcome{
			Target:    model.RepoTarget{Name: "tool", LocalPath: "/src/tool", Mode: model.ModeLocal, Provenance: "work"},
			FinalKind: model.StateUpToDate,
			Action:    model.ActionNone,
		}
		data, err := json.Marshal(outcome)
		Expect(err).NotTo(HaveOccurred())

		var raw map[string]any
		Expect(json.Unmarshal(data, &raw)).To(Succeed())
		Expect(raw).To(HaveKeyWithValue("final_kind", "up_to_date"))
		Expect(raw).To(HaveKeyWithValue("action", "none"))
		Expect(raw).NotTo(HaveKey("error"))
		Expect(raw).NotTo(HaveKey("commit_log"))
		Expect(raw["target"]).To(HaveKeyWithValue("local_path", "/src/tool"))
	})
})
