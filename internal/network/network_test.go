// SPDX-License-Identifier: MIT
package network

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/vcs/vcstest"
)

var _ = Describe("OwnerURL", func() {
	It("rewrites the owner segment", func() {
		got, err := OwnerURL("https://github.com/alice/tool.git", "bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("https://github.com/bob/tool.git"))
	})

	It("rejects URLs without an owner", func() {
		_, err := OwnerURL("https://github.com/", "bob")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("BuildPlans", func() {
	var fake *vcstest.Adapter

	BeforeEach(func() {
		fake = vcstest.New()
		fake.Add("/hub/tool", &vcstest.Repo{Remotes: []model.Remote{
			{Name: "origin", URL: "git@github.com:alice/tool.git"},
			{Name: "carol", URL: "https://example.com/carol/tool.git"},
			{Name: "up", URL: "git@github.com:upstream/tool.git"},
		}})
	})

	It("plans only missing owners", func() {
		plans, err := BuildPlans(context.Background(), fake, "/hub/tool", "https://github.com/alice/tool.git", []string{"bob", "carol", "upstream"})
		Expect(err).NotTo(HaveOccurred())
		Expect(plans).To(Equal([]Plan{{
			Path:   "/hub/tool",
			Remote: "bob",
			URL:    "https://github.com/bob/tool.git",
			Action: "add network remote",
		}}))
	})

	It("returns nothing without owners", func() {
		plans, err := BuildPlans(context.Background(), fake, "/hub/tool", "https://github.com/alice/tool.git", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(plans).To(BeEmpty())
	})

	It("propagates remote listing errors", func() {
		_, err := BuildPlans(context.Background(), fake, "/missing", "https://github.com/alice/tool.git", []string{"bob"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ApplyPlans", func() {
	var fake *vcstest.Adapter

	BeforeEach(func() {
		fake = vcstest.New()
	})

	It("adds and fetches each remote", func() {
		fake.Add("/hub/tool", &vcstest.Repo{})
		plans := []Plan{
			{Path: "/hub/tool", Remote: "bob", URL: "https://github.com/bob/tool.git"},
			{Path: "/hub/tool", Remote: "carol", URL: "https://github.com/carol/tool.git"},
		}
		Expect(ApplyPlans(context.Background(), plans, fake, true)).To(Succeed())
		Expect(fake.Mutations()).To(Equal([]string{
			"remote-add /hub/tool bob https://github.com/bob/tool.git",
			"fetch-remote /hub/tool bob",
			"remote-add /hub/tool carol https://github.com/carol/tool.git",
			"fetch-remote /hub/tool carol",
		}))
	})

	It("skips the fetch when not requested", func() {
		fake.Add("/hub/tool", &vcstest.Repo{})
		Expect(ApplyPlans(context.Background(), []Plan{{Path: "/hub/tool", Remote: "bob", URL: "u"}}, fake, false)).To(Succeed())
		Expect(fake.Count("fetch-remote")).To(Equal(0))
	})

	It("collects failures and continues", func() {
		fake.Add("/hub/tool", &vcstest.Repo{FetchRemoteErr: errors.New("could not resolve host")})
		plans := []Plan{
			{Path: "/hub/tool", Remote: "bob", URL: "u1"},
			{Path: "/hub/tool", Remote: "carol", URL: "u2"},
		}
		err := ApplyPlans(context.Background(), plans, fake, true)
		Expect(err).To(MatchError(ContainSubstring("2 errors occurred")))
		Expect(fake.Count("remote-add")).To(Equal(2))
	})

	It("stops on interrupt", func() {
		fake.Add("/hub/tool", &vcstest.Repo{FetchRemoteErr: &gitx.SignalError{Signal: os.Interrupt, Args: []string{"fetch"}}})
		plans := []Plan{
			{Path: "/hub/tool", Remote: "bob", URL: "u1"},
			{Path: "/hub/tool", Remote: "carol", URL: "u2"},
		}
		err := ApplyPlans(context.Background(), plans, fake, true)
		var intErr *gitx.InterruptError
		Expect(errors.As(err, &intErr)).To(BeTrue())
		Expect(fake.Count("remote-add")).To(Equal(1))
	})
})
