package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/forge"
	"github.com/skaphos/gitsync/internal/gitx"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/vcs/vcstest"
)

const cleanStatus = "On branch main\nYour branch is up to date with 'origin/main'.\n\nnothing to commit, working tree clean\n"

var _ = Describe("Select", func() {
	It("fails without categories", func() {
		_, err := Select(&config.Config{}, nil)
		Expect(errors.Is(err, ErrNoCategories)).To(BeTrue())
	})

	It("rejects unknown names", func() {
		cfg := &config.Config{Categories: map[string]config.Category{"work": {Into: config.Values{"/src"}}}}
		_, err := Select(cfg, []string{"work", "play"})
		Expect(errors.Is(err, ErrUnknownCategory)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"play"`))
	})

	It("runs local categories last", func() {
		cfg := &config.Config{Categories: map[string]config.Category{
			"attic":  {Into: config.Values{"/attic"}},
			"hub":    {Into: config.Values{"/hub"}, GitHub: config.Values{"alice"}},
			"server": {Into: config.Values{"/srv"}, Host: "git.example.com", Path: config.Values{"/git"}},
		}}
		names, err := Select(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"hub", "server", "attic"}))

		names, err = Select(cfg, []string{"attic", "hub", "attic"})
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"hub", "attic"}))
	})
})

var _ = Describe("Planner", func() {
	var (
		root    string
		cfg     *config.Config
		fake    *vcstest.Adapter
		ssh     *fakeTransport
		local   *fakeTransport
		catalog *fakeCatalog
		rec     *recorder
		ctx     context.Context
	)

	newPlanner := func() *Planner {
		p, err := New(Deps{
			Config:   cfg,
			Engine:   engine.New(fake, quietLogger()),
			SSH:      ssh,
			Local:    local,
			Catalog:  func(string, config.Category) forge.Catalog { return catalog },
			Sink:     rec,
			Log:      quietLogger(),
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	// cloneRegisters makes every successful clone a known, clean repo.
	cloneRegisters := func(t *fakeTransport) {
		t.onClone = func(dest string) {
			mkdirs(filepath.Join(dest, ".git"))
			fake.Add(dest, &vcstest.Repo{Status: cleanStatus, Branch: "main"})
		}
	}

	BeforeEach(func() {
		root = tempDir()
		cfg = &config.Config{Categories: map[string]config.Category{}}
		fake = vcstest.New()
		ssh = newFakeTransport()
		local = newFakeTransport()
		catalog = &fakeCatalog{pages: map[string][][]forge.Descriptor{}, network: map[string][]string{}}
		rec = &recorder{}
		ctx = context.Background()
	})

	It("requires config and engine", func() {
		_, err := New(Deps{})
		Expect(err).To(HaveOccurred())
	})

	Describe("local categories", func() {
		BeforeEach(func() {
			mkdirs(
				filepath.Join(root, "work", "alpha"),
				filepath.Join(root, "work", "beta.git"),
				filepath.Join(root, "work", "node_modules"),
			)
			fake.Add(filepath.Join(root, "work", "alpha"), &vcstest.Repo{Status: cleanStatus})
			fake.Add(filepath.Join(root, "work", "beta.git"), &vcstest.Repo{Bare: true})
			cfg.Exclude = []string{"**/node_modules"}
		})

		It("reconciles every immediate subdirectory", func() {
			cfg.Categories["work"] = config.Category{Into: config.Values{filepath.Join(root, "work")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(2))
			Expect(rec.byName("alpha").FinalKind).To(Equal(model.StateUpToDate))
			Expect(rec.byName("beta").FinalKind).To(Equal(model.StateBare))
			Expect(summary.Count(model.ActionFetchOnly)).To(Equal(1))
		})

		It("expands glob roots", func() {
			mkdirs(filepath.Join(root, "more", "gamma"))
			cfg.Categories["work"] = config.Category{Into: config.Values{filepath.Join(root, "w*")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(2))
		})

		It("warns about missing roots and carries on", func() {
			cfg.Categories["work"] = config.Category{Into: config.Values{
				filepath.Join(root, "gone"),
				filepath.Join(root, "work"),
			}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.warnings).To(ConsistOf(ContainSubstring("does not exist")))
			Expect(summary.Outcomes).To(HaveLen(2))
		})

		It("reconciles a path shared by two categories once", func() {
			cfg.Categories["a"] = config.Category{Into: config.Values{filepath.Join(root, "work")}}
			cfg.Categories["b"] = config.Category{Into: config.Values{filepath.Join(root, "work")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(2))
			Expect(fake.Count("is-repo")).To(Equal(2))
			for _, o := range summary.Outcomes {
				Expect(o.Target.Provenance).To(Equal("a"))
				Expect(o.Duplicate).To(BeFalse())
			}
		})

		It("reports a category without into as a config error", func() {
			cfg.Categories["empty"] = config.Category{}
			cfg.Categories["work"] = config.Category{Into: config.Values{filepath.Join(root, "work")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			var cfgErr *config.Error
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Category).To(Equal("empty"))
			Expect(summary.Outcomes).To(HaveLen(2))
		})

		It("stops the run on an interrupt", func() {
			fake.Repos[filepath.Join(root, "work", "alpha")].StatusErr = &gitx.SignalError{Signal: syscall.SIGINT}
			cfg.Categories["work"] = config.Category{Into: config.Values{filepath.Join(root, "work")}}
			cfg.Categories["zz"] = config.Category{Into: config.Values{filepath.Join(root, "work")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			var intErr *gitx.InterruptError
			Expect(errors.As(err, &intErr)).To(BeTrue())
			Expect(summary.Categories).To(Equal([]string{"work"}))
		})
	})

	Describe("forge categories", func() {
		var hub string

		descriptor := func(name string) forge.Descriptor {
			return forge.Descriptor{
				Name:     name,
				Owner:    "alice",
				SSHURL:   "git@github.com:alice/" + name + ".git",
				CloneURL: "https://github.com/alice/" + name + ".git",
			}
		}

		BeforeEach(func() {
			hub = filepath.Join(root, "hub")
			cfg.Categories["hub"] = config.Category{Into: config.Values{hub}, GitHub: config.Values{"alice"}}
			cloneRegisters(ssh)
		})

		It("does nothing for an empty first page", func() {
			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(BeEmpty())
			Expect(ssh.clones).To(BeEmpty())
			Expect(catalog.calls).To(Equal([]string{"list alice 1"}))
			Expect(hub).To(BeADirectory())
		})

		It("pages until an empty page", func() {
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("one")}, {descriptor("two")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Count(model.ActionCloned)).To(Equal(2))
			Expect(catalog.calls).To(Equal([]string{"list alice 1", "list alice 2", "list alice 3"}))
		})

		It("falls back to the read-only transport silently", func() {
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}
			ssh.cloneErr["git@github.com:alice/tool.git"] = errors.New("Permission denied (publickey).")

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			out := rec.byName("tool")
			Expect(out.Action).To(Equal(model.ActionCloned))
			Expect(out.ErrorDetail).To(BeEmpty())
			Expect(out.Target.RemoteRef).To(Equal("https://github.com/alice/tool.git"))
			Expect(summary.Failed()).To(BeZero())
			Expect(ssh.clones).To(HaveLen(2))
		})

		It("records a clone failure after one fallback", func() {
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}
			ssh.cloneErr["git@github.com:alice/tool.git"] = errors.New("Permission denied (publickey).")
			ssh.cloneErr["https://github.com/alice/tool.git"] = errors.New("fatal: repository not found")

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.byName("tool").Action).To(Equal(model.ActionCloneFailed))
			Expect(rec.byName("tool").ErrorClass).To(Equal("missing_remote"))
			Expect(summary.Failed()).To(Equal(1))
		})

		It("sets user.email and network remotes on a fresh clone", func() {
			cat := cfg.Categories["hub"]
			cat.Email = "alice@example.com"
			cat.Network = true
			cfg.Categories["hub"] = cat
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}
			catalog.network["tool"] = []string{"bob"}

			_, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			path := filepath.Join(hub, "tool")
			Expect(fake.Repos[path].Config).To(HaveKeyWithValue("user.email", "alice@example.com"))
			Expect(fake.Calls).To(ContainElements(
				"remote-add "+path+" bob https://github.com/bob/tool.git",
				"fetch-remote "+path+" bob",
			))
		})

		It("reconciles existing clones", func() {
			path := filepath.Join(hub, "tool")
			mkdirs(path)
			fake.Add(path, &vcstest.Repo{Status: cleanStatus})
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ssh.clones).To(BeEmpty())
			Expect(summary.Outcomes).To(HaveLen(1))
			Expect(summary.Outcomes[0].FinalKind).To(Equal(model.StateUpToDate))
		})

		It("clones nothing and creates nothing under dry-run", func() {
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}

			_, err := newPlanner().Run(ctx, nil, engine.Options{DryRun: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(ssh.clones).To(BeEmpty())
			Expect(hub).NotTo(BeADirectory())
			Expect(rec.byName("tool").Action).To(Equal(model.ActionSkipped))
			Expect(rec.byName("tool").Note).To(Equal("would clone git@github.com:alice/tool.git"))
		})

		It("requires exactly one destination", func() {
			cfg.Categories["hub"] = config.Category{Into: config.Values{"/a", "/b"}, GitHub: config.Values{"alice"}}

			_, err := newPlanner().Run(ctx, nil, engine.Options{})
			var cfgErr *config.Error
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Key).To(Equal("into"))
			Expect(catalog.calls).To(BeEmpty())
		})

		It("shares ssh sessions with the hosts named in ssh-master", func() {
			cat := cfg.Categories["hub"]
			cat.SSHMaster = config.Values{"github.com"}
			cfg.Categories["hub"] = cat

			_, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ssh.allowed).To(Equal([]string{"github.com"}))
		})

		It("matches a relative destination against a local category with the same directory", func() {
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(root)).To(Succeed())
			DeferCleanup(os.Chdir, wd)

			path := filepath.Join(hub, "tool")
			mkdirs(path)
			fake.Add(path, &vcstest.Repo{Status: cleanStatus})
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}
			cfg.Categories["hub"] = config.Category{Into: config.Values{"./hub"}, GitHub: config.Values{"alice"}}
			cfg.Categories["attic"] = config.Category{Into: config.Values{hub + string(filepath.Separator)}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(1))
			Expect(summary.Outcomes[0].Target.Provenance).To(Equal("hub"))
			Expect(summary.Outcomes[0].Target.LocalPath).To(Equal(path))
			Expect(fake.Count("is-repo")).To(Equal(1))
		})

		It("reports a second category claiming the same path as a duplicate", func() {
			cfg.Categories["mirror"] = config.Category{Into: config.Values{hub}, GitHub: config.Values{"alice"}}
			catalog.pages["alice"] = [][]forge.Descriptor{{descriptor("tool")}}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(2))
			Expect(summary.Outcomes[0].Action).To(Equal(model.ActionCloned))
			Expect(summary.Outcomes[1].Duplicate).To(BeTrue())
			Expect(summary.Outcomes[1].Note).To(ContainSubstring(`"hub"`))
			Expect(ssh.clones).To(HaveLen(1))
		})
	})

	Describe("remote categories", func() {
		var srv string

		BeforeEach(func() {
			srv = filepath.Join(root, "srv")
			cfg.Categories["server"] = config.Category{
				Into:      config.Values{srv},
				Path:      config.Values{"git.example.com:/git/a", "/git/b"},
				SSHMaster: config.Values{"git.example.com"},
			}
			cloneRegisters(ssh)
		})

		It("continues with the next path when a listing fails", func() {
			ssh.remote["git.example.com "+listCommand("/git/a/*")] = remoteResult{exit: 2}
			ssh.remote["git.example.com "+listCommand("/git/b/*")] = remoteResult{stdout: "/git/b/tool.git\n"}
			ssh.remote["git.example.com "+inspectCommand("/git/b/tool.git")] = remoteResult{}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.warnings).To(ConsistOf(ContainSubstring("git.example.com:/git/a")))
			Expect(ssh.allowed).To(Equal([]string{"git.example.com"}))
			Expect(ssh.clones).To(Equal([]string{"ssh git.example.com:/git/b/tool.git " + filepath.Join(srv, "tool")}))
			Expect(summary.Count(model.ActionCloned)).To(Equal(1))
		})

		It("skips entries that are not repositories or are ignored", func() {
			ssh.remote["git.example.com "+listCommand("/git/a/*")] = remoteResult{stdout: "/git/a/docs\n/git/a/old.git\n"}
			ssh.remote["git.example.com "+listCommand("/git/b/*")] = remoteResult{}
			ssh.remote["git.example.com "+inspectCommand("/git/a/docs")] = remoteResult{exit: exitNotRepo}
			ssh.remote["git.example.com "+inspectCommand("/git/a/old.git")] = remoteResult{stdout: "true\n"}

			_, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ssh.clones).To(BeEmpty())
			Expect(rec.byName("docs").FinalKind).To(Equal(model.StateUnversioned))
			Expect(rec.byName("old").FinalKind).To(Equal(model.StateIgnored))
		})

		It("de-duplicates listing entries by local path", func() {
			ssh.remote["git.example.com "+listCommand("/git/a/*")] = remoteResult{stdout: "/git/a/tool\n"}
			ssh.remote["git.example.com "+listCommand("/git/b/*")] = remoteResult{stdout: "/git/b/tool.git\n"}
			ssh.remote["git.example.com "+inspectCommand("/git/a/tool")] = remoteResult{}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(1))
			Expect(ssh.clones).To(HaveLen(1))
		})

		It("reconciles existing local copies without asking the remote", func() {
			path := filepath.Join(srv, "tool")
			mkdirs(path)
			fake.Add(path, &vcstest.Repo{Status: cleanStatus})
			ssh.remote["git.example.com "+listCommand("/git/a/*")] = remoteResult{stdout: "/git/a/tool.git\n"}
			ssh.remote["git.example.com "+listCommand("/git/b/*")] = remoteResult{}

			summary, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Outcomes).To(HaveLen(1))
			Expect(ssh.commands).To(HaveLen(2))
		})

		It("uses the local shell for localhost", func() {
			cfg.Categories["server"] = config.Category{Into: config.Values{srv}, Host: LocalHost, Path: config.Values{"/git/*.git"}}
			cloneRegisters(local)
			local.remote[LocalHost+" "+listCommand("/git/*.git")] = remoteResult{stdout: "/git/tool.git\n"}
			local.remote[LocalHost+" "+inspectCommand("/git/tool.git")] = remoteResult{}

			_, err := newPlanner().Run(ctx, nil, engine.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ssh.commands).To(BeEmpty())
			Expect(local.clones).To(Equal([]string{"local /git/tool.git " + filepath.Join(srv, "tool")}))
		})

		It("only lists and inspects under dry-run", func() {
			ssh.remote["git.example.com "+listCommand("/git/a/*")] = remoteResult{stdout: "/git/a/tool.git\n"}
			ssh.remote["git.example.com "+listCommand("/git/b/*")] = remoteResult{}
			ssh.remote["git.example.com "+inspectCommand("/git/a/tool.git")] = remoteResult{}

			_, err := newPlanner().Run(ctx, nil, engine.Options{DryRun: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(ssh.clones).To(BeEmpty())
			Expect(rec.byName("tool").Note).To(Equal("would clone git.example.com:/git/a/tool.git"))
			Expect(srv).NotTo(BeADirectory())
		})
	})

	It("closes shared sessions", func() {
		Expect(newPlanner().Close()).To(Succeed())
		Expect(ssh.closed).To(BeTrue())
	})
})

var _ = Describe("remote commands", func() {
	It("leaves glob characters for the remote shell", func() {
		Expect(listCommand("~/git/my repos/*.git")).To(HavePrefix(`for d in ~/git/my\ repos/*.git; do`))
	})

	It("quotes inspected directories", func() {
		Expect(inspectCommand("/git/it's")).To(HavePrefix(`cd '/git/it'\''s' 2>/dev/null || exit 3;`))
	})
})
