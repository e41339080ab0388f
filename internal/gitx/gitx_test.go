package gitx_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
)

var _ = Describe("GitRunner.Run", func() {
	var runner *gitx.GitRunner

	BeforeEach(func() {
		runner = &gitx.GitRunner{}
	})

	It("runs git version successfully", func() {
		out, err := runner.Run(context.Background(), "", "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("git version"))
	})

	It("wraps failures in a CommandError", func() {
		_, err := runner.Run(context.Background(), GinkgoT().TempDir(), "status")
		var cmdErr *gitx.CommandError
		Expect(errors.As(err, &cmdErr)).To(BeTrue())
		Expect(cmdErr.Error()).To(ContainSubstring("not a git repository"))
		Expect(gitx.ExitCode(err)).To(Equal(128))
	})

	It("reports context cancellation as an interrupt", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.Run(ctx, "", "version")
		Expect(err).To(HaveOccurred())
		Expect(gitx.Interrupted(err)).NotTo(BeNil())
	})
})

var _ = Describe("IsRepo", func() {
	const gitDirQuery = "/repo:rev-parse --is-bare-repository --absolute-git-dir"

	It("accepts the top level of a working tree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			gitDirQuery:                       {Output: "false\n/repo/.git\n"},
			"/repo:rev-parse --show-toplevel": {Output: "/repo\n"},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("rejects a plain directory nested inside another working tree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/home/notes:rev-parse --is-bare-repository --absolute-git-dir": {Output: "false\n/home/.git\n"},
			"/home/notes:rev-parse --show-toplevel":                         {Output: "/home\n"},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/home/notes")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("accepts a bare repository by its git dir", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/srv/tool.git:rev-parse --is-bare-repository --absolute-git-dir": {Output: "true\n/srv/tool.git\n"},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/srv/tool.git")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("rejects a directory inside a bare repository", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/srv/tool.git/hooks:rev-parse --is-bare-repository --absolute-git-dir": {Output: "true\n/srv/tool.git\n"},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/srv/tool.git/hooks")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("returns false on error", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			gitDirQuery: {Err: errors.New("not a repo")},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("propagates interrupts", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			gitDirQuery: {Err: context.Canceled},
		}}
		_, err := gitx.IsRepo(context.Background(), mock, "/repo")
		var intErr *gitx.InterruptError
		Expect(errors.As(err, &intErr)).To(BeTrue())
	})
})

var _ = Describe("IsBare", func() {
	It("returns true for a bare repo", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --is-bare-repository": {Output: "true"},
		}}
		ok, err := gitx.IsBare(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("returns false for a working tree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --is-bare-repository": {Output: "false"},
		}}
		ok, err := gitx.IsBare(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Remotes", func() {
	It("lists remotes with their URLs", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote":                {Output: "origin\nbob\n"},
			"/repo:remote get-url origin": {Output: "git@github.com:alice/tool.git"},
			"/repo:remote get-url bob":    {Output: "https://github.com/bob/tool.git"},
		}}
		remotes, err := gitx.Remotes(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(remotes).To(Equal([]model.Remote{
			{Name: "origin", URL: "git@github.com:alice/tool.git"},
			{Name: "bob", URL: "https://github.com/bob/tool.git"},
		}))
	})

	It("returns nil for no remotes", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote": {Output: ""},
		}}
		remotes, err := gitx.Remotes(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(remotes).To(BeNil())
	})

	It("errors when git remote fails", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote": {Err: errors.New("boom")},
		}}
		_, err := gitx.Remotes(context.Background(), mock, "/repo")
		Expect(err).To(MatchError(ContainSubstring("git remote")))
	})
})

var _ = Describe("SymbolicRef", func() {
	It("returns the branch", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Output: "main\n"},
		}}
		branch, ok, err := gitx.SymbolicRef(context.Background(), mock, "/repo", "HEAD")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(branch).To(Equal("main"))
	})

	It("reports detached HEAD", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Err: exitError{code: 1}},
		}}
		_, ok, err := gitx.SymbolicRef(context.Background(), mock, "/repo", "HEAD")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
