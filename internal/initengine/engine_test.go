//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package initengine_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/init-project/internal/ignore"
	"github.com/joe/init-project/internal/initengine"
	"github.com/joe/init-project/internal/rules"
	"github.com/joe/init-project/pkg/filesystem"
)

var epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// testEventEmitter is a simple test double for capturing events.
type testEventEmitter struct {
	events []initengine.Event
}

func (e *testEventEmitter) Emit(event initengine.Event) {
	e.events = append(e.events, event)
}

func (e *testEventEmitter) renamesPlanned() []string {
	var out []string
	for _, ev := range e.events {
		if p, ok := ev.(initengine.RenamePlanned); ok {
			out = append(out, p.From+" ⇢ "+p.To)
		}
	}
	return out
}

func (e *testEventEmitter) contentPlanned() []string {
	var out []string
	for _, ev := range e.events {
		if p, ok := ev.(initengine.ContentPlanned); ok {
			out = append(out, p.Path)
		}
	}
	return out
}

// templateFS returns a small template: one placeholder directory with a
// source file, a README, the VCS directory and an ignore file.
func templateFS() *filesystem.MockFileSystem {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile(".git/HEAD", []byte("ref: refs/heads/<PROJ>\n"), epoch)
	fs.AddFile(".gitignore", []byte("build\n"), epoch)
	fs.AddFile("<PROJ>/main.cpp", []byte("// __PROJID__ <EXEC>\n"), epoch)
	fs.AddFile("README.md", []byte("plain readme\n"), epoch)

	return fs
}

func newEngine(fs filesystem.FileSystem) *initengine.Engine {
	engine := initengine.NewEngineWithFS(fs, ".")
	engine.Rules = rules.Placeholders("000427", "alpha", "hello")
	engine.Artifacts = []string{"init", "init-project", ".init-project.yaml"}

	return engine
}

func readFile(g Gomega, fs *filesystem.MockFileSystem, name string) string {
	data, _, err := fs.GetFile(name)
	g.Expect(err).ShouldNot(HaveOccurred())
	return string(data)
}

func TestEngine_EndToEnd(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	result, err := newEngine(fs).Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(fs.Exists("<PROJ>")).Should(BeFalse())
	g.Expect(readFile(g, fs, "alpha/main.cpp")).Should(Equal("// 000427 hello\n"))
	g.Expect(result.Renamed).Should(Equal(1))
	g.Expect(result.Rewritten).Should(Equal(1))
	g.Expect(result.Skipped).Should(BeEmpty())
}

func TestEngine_DryRunMutatesNothing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("init", []byte("#!/bin/sh\n"), epoch)
	before := fs.ListFiles()

	engine := newEngine(fs)
	engine.Simulate = true
	emitter := &testEventEmitter{}
	engine.SetEventEmitter(emitter)

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(fs.ListFiles()).Should(Equal(before))
	for _, name := range before {
		info, statErr := fs.Stat(name)
		g.Expect(statErr).ShouldNot(HaveOccurred())
		g.Expect(info.ModTime()).Should(Equal(epoch), name)
		g.Expect(fs.WriteCount(name)).Should(BeZero(), name)
	}
	g.Expect(readFile(g, fs, "<PROJ>/main.cpp")).Should(Equal("// __PROJID__ <EXEC>\n"))

	g.Expect(emitter.renamesPlanned()).Should(Equal([]string{"./<PROJ> ⇢ ./alpha"}))
	g.Expect(emitter.contentPlanned()).Should(Equal([]string{"./<PROJ>/main.cpp"}))
	g.Expect(result.Removed).Should(BeEmpty())
	g.Expect(result.Rewritten).Should(Equal(1))
}

func TestEngine_DryRunSnapshotShowsFinalLayout(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	engine := newEngine(templateFS())
	engine.Simulate = true

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	var paths []string
	for _, e := range result.Snapshot.Entries {
		paths = append(paths, e.RelPath())
	}
	g.Expect(paths).Should(ContainElements("alpha", "alpha/main.cpp"))
	g.Expect(paths).ShouldNot(ContainElement("<PROJ>/main.cpp"))
}

func TestEngine_NoNameMatchesAnyRuleAfterCascade(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("<PROJ>/<EXEC>/__PROJID__-<EXEC>.txt", []byte("x"), epoch)
	fs.AddFile("<PROJ>/<EXEC>/<PROJ>-docs/<EXEC>.md", []byte("x"), epoch)
	fs.AddDir("src/<EXEC>", epoch)

	engine := newEngine(fs)
	_, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	for _, name := range fs.ListFiles() {
		if strings.HasPrefix(name, ".git/") {
			continue
		}
		g.Expect(engine.Rules.MatchesAny(filepath.Base(name))).Should(BeFalse(), name)
	}

	g.Expect(fs.Exists("alpha/hello/000427-hello.txt")).Should(BeTrue())
	g.Expect(fs.Exists("alpha/hello/alpha-docs/hello.md")).Should(BeTrue())
	g.Expect(fs.Exists("src/hello")).Should(BeTrue())
}

func TestEngine_DirectoryRenameKeepsRelativeSuffix(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("<PROJ>/a/b/c.txt", []byte("c"), epoch)
	fs.AddFile("<PROJ>/a/d.txt", []byte("d"), epoch)

	_, err := newEngine(fs).Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(readFile(g, fs, "alpha/a/b/c.txt")).Should(Equal("c"))
	g.Expect(readFile(g, fs, "alpha/a/d.txt")).Should(Equal("d"))
}

func TestEngine_FileWithoutTokensIsNotWritten(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	_, err := newEngine(fs).Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(fs.WriteCount("README.md")).Should(BeZero())
	_, modTime, _ := fs.GetFile("README.md")
	g.Expect(modTime).Should(Equal(epoch))
}

func TestEngine_VCSDirectoryIsNeverTouched(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile(".git/<PROJ>.pack", []byte("<EXEC>"), epoch)

	_, err := newEngine(fs).Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(readFile(g, fs, ".git/HEAD")).Should(Equal("ref: refs/heads/<PROJ>\n"))
	g.Expect(fs.Exists(".git/<PROJ>.pack")).Should(BeTrue())
	g.Expect(fs.WriteCount(".git/HEAD")).Should(BeZero())
}

func TestEngine_IgnoreFileRulesApply(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("build/<PROJ>.o", []byte("<PROJ>"), epoch)

	_, err := newEngine(fs).Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(readFile(g, fs, "build/<PROJ>.o")).Should(Equal("<PROJ>"))
}

func TestEngine_ExcludeGlobs(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("third_party/<PROJ>/lib.h", []byte("<PROJ>"), epoch)

	engine := newEngine(fs)
	engine.Excludes = []string{"third_party/**"}

	_, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(readFile(g, fs, "third_party/<PROJ>/lib.h")).Should(Equal("<PROJ>"))
}

func TestEngine_InvalidExcludeFailsBeforeMutation(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	engine := newEngine(fs)
	engine.Excludes = []string{"src/[abc"}

	_, err := engine.Run()
	g.Expect(errors.Is(err, initengine.ErrInvalidPattern)).Should(BeTrue())
	g.Expect(fs.Exists("<PROJ>/main.cpp")).Should(BeTrue())
}

func TestEngine_GitignoreSyntax(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddDir(".git", epoch)
	fs.AddFile(".gitignore", []byte("*.o\n"), epoch)
	fs.AddFile("<PROJ>.o", []byte("<PROJ>"), epoch)
	fs.AddFile("<PROJ>.c", []byte("<PROJ>"), epoch)

	engine := newEngine(fs)
	engine.IgnoreSyntax = ignore.SyntaxGitignore

	_, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(fs.Exists("<PROJ>.o")).Should(BeTrue())
	g.Expect(readFile(g, fs, "alpha.c")).Should(Equal("alpha"))
}

func TestEngine_GitignoreDirectoryPatternKeepsSubtree(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddDir(".git", epoch)
	fs.AddFile(".gitignore", []byte("<PROJ>-vendor/\n"), epoch)
	fs.AddFile("<PROJ>-vendor/<EXEC>.c", []byte("<EXEC>"), epoch)
	fs.AddFile("<PROJ>/<EXEC>.c", []byte("<EXEC>"), epoch)

	engine := newEngine(fs)
	engine.IgnoreSyntax = ignore.SyntaxGitignore

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(readFile(g, fs, "<PROJ>-vendor/<EXEC>.c")).Should(Equal("<EXEC>"))
	g.Expect(fs.Exists("alpha-vendor")).Should(BeFalse())
	g.Expect(readFile(g, fs, "alpha/hello.c")).Should(Equal("hello"))
	g.Expect(result.Renamed).Should(Equal(2))
	g.Expect(result.Rewritten).Should(Equal(1))
}

func TestEngine_MalformedIgnoreFileIsFatal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile(".gitignore", []byte("*.o\n"), epoch)

	_, err := newEngine(fs).Run()
	g.Expect(errors.Is(err, initengine.ErrInvalidPattern)).Should(BeTrue())
	g.Expect(err.Error()).Should(ContainSubstring(".gitignore line 1"))
	g.Expect(fs.Exists("<PROJ>")).Should(BeTrue())
}

func TestEngine_MissingMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		missing string
	}{
		{"no vcs directory", ".git"},
		{"no ignore file", ".gitignore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			fs := templateFS()
			g.Expect(fs.RemoveAll(tt.missing)).Should(Succeed())

			result, err := newEngine(fs).Run()
			g.Expect(errors.Is(err, initengine.ErrMissingMarker)).Should(BeTrue())
			g.Expect(errors.Is(err, os.ErrNotExist)).Should(BeTrue())
			g.Expect(err.Error()).Should(ContainSubstring(tt.missing))
			g.Expect(result).Should(BeNil())
			g.Expect(fs.Exists("<PROJ>/main.cpp")).Should(BeTrue())
		})
	}
}

func TestEngine_RenameCollisionIsFatal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("alpha/existing.txt", []byte("x"), epoch)

	result, err := newEngine(fs).Run()
	g.Expect(errors.Is(err, initengine.ErrRenameFailed)).Should(BeTrue())
	g.Expect(errors.Is(err, filesystem.ErrDestinationExists)).Should(BeTrue())
	g.Expect(err.Error()).Should(ContainSubstring("./<PROJ> ⇢ ./alpha"))

	// the content pass never ran
	g.Expect(result.Rewritten).Should(BeZero())
	g.Expect(readFile(g, fs, "<PROJ>/main.cpp")).Should(Equal("// __PROJID__ <EXEC>\n"))
}

func TestEngine_RenamesBeforeCollisionStayApplied(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("z-<EXEC>.txt", []byte(""), epoch)
	fs.AddFile("z-hello.txt", []byte(""), epoch)

	_, err := newEngine(fs).Run()
	g.Expect(errors.Is(err, initengine.ErrRenameFailed)).Should(BeTrue())

	// "<PROJ>" is walked before the colliding file
	g.Expect(fs.Exists("alpha/main.cpp")).Should(BeTrue())
	g.Expect(fs.Exists("z-<EXEC>.txt")).Should(BeTrue())
}

func TestEngine_ContentFailuresAreRecoverable(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("a.txt", []byte("<PROJ>"), epoch)
	fs.AddFile("b.txt", []byte("<EXEC>"), epoch)
	fs.AddFile("c.txt", []byte("__PROJID__"), epoch)
	fs.FailOpen("a.txt")
	fs.FailCreate("b.txt")

	engine := newEngine(fs)
	emitter := &testEventEmitter{}
	engine.SetEventEmitter(emitter)

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(result.Skipped).Should(HaveLen(2))
	g.Expect(result.Skipped[0].FilePath).Should(Equal("./a.txt"))
	g.Expect(result.Skipped[1].FilePath).Should(Equal("./b.txt"))
	g.Expect(errors.Is(result.Skipped[0].Error, filesystem.ErrInjected)).Should(BeTrue())

	g.Expect(readFile(g, fs, "c.txt")).Should(Equal("000427"))
	g.Expect(readFile(g, fs, "alpha/main.cpp")).Should(Equal("// 000427 hello\n"))

	var skipped int
	for _, ev := range emitter.events {
		if _, ok := ev.(initengine.FileSkipped); ok {
			skipped++
		}
	}
	g.Expect(skipped).Should(Equal(2))
}

func TestEngine_CleanupRemovesArtifacts(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("init", []byte("#!/bin/sh\n"), epoch)
	fs.AddFile("init-project/main.go", []byte("package main\n"), epoch)

	result, err := newEngine(fs).Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(result.Removed).Should(Equal([]string{"init", "init-project"}))
	g.Expect(fs.Exists("init")).Should(BeFalse())
	g.Expect(fs.Exists("init-project")).Should(BeFalse())
	g.Expect(fs.Exists("README.md")).Should(BeTrue())
}

func TestEngine_ProtectedPathsAreSkippedAndKept(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("<PROJ>-rules.yaml", []byte("token: <EXEC>\n"), epoch)

	engine := newEngine(fs)
	engine.Protected = []string{"<PROJ>-rules.yaml"}

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(readFile(g, fs, "<PROJ>-rules.yaml")).Should(Equal("token: <EXEC>\n"))
	g.Expect(fs.WriteCount("<PROJ>-rules.yaml")).Should(BeZero())
	g.Expect(result.Removed).Should(BeEmpty())
	g.Expect(readFile(g, fs, "alpha/main.cpp")).Should(Equal("// 000427 hello\n"))
}

func TestEngine_CleanupDisabled(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("init", []byte("#!/bin/sh\n"), epoch)

	engine := newEngine(fs)
	engine.Cleanup = false

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(result.Removed).Should(BeEmpty())
	g.Expect(fs.Exists("init")).Should(BeTrue())
}

func TestEngine_EventOrder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := templateFS()
	fs.AddFile("init", []byte("#!/bin/sh\n"), epoch)

	engine := newEngine(fs)
	emitter := &testEventEmitter{}
	engine.SetEventEmitter(emitter)
	g.Expect(engine.GetEventEmitter()).Should(Equal(emitter))

	_, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(emitter.events).Should(Equal([]initengine.Event{
		initengine.PassStarted{Pass: initengine.PassStructural},
		initengine.RenameApplied{From: "./<PROJ>", To: "./alpha", Token: "<PROJ>", Descendants: 1},
		initengine.PassComplete{Pass: initengine.PassStructural, Entries: 7, Changed: 1},
		initengine.PassStarted{Pass: initengine.PassContent},
		initengine.ContentRewritten{
			Path:        "./alpha/main.cpp",
			Tokens:      []string{"__PROJID__", "<EXEC>"},
			BytesBefore: 21,
			BytesAfter:  16,
		},
		initengine.PassComplete{Pass: initengine.PassContent, Entries: 7, Changed: 1},
		initengine.ArtifactRemoved{Path: "./init"},
	}))
}

func TestEngine_Duration(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	engine := newEngine(templateFS())
	engine.TimeProvider = &initengine.FixedTimeProvider{Current: epoch, Step: 3 * time.Second}

	result, err := engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(result.Duration).Should(Equal(3 * time.Second))
}

func TestEngine_RealFileSystem(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
	mustWrite(t, filepath.Join(root, ".gitignore"), "")
	mustWrite(t, filepath.Join(root, "<PROJ>", "main.cpp"), "// __PROJID__ <EXEC>\n")
	mustWrite(t, filepath.Join(root, "init"), "#!/bin/sh\n")

	engine, err := initengine.NewEngine(root)
	g.Expect(err).ShouldNot(HaveOccurred())
	defer engine.Close()

	engine.Rules = rules.Placeholders("000427", "alpha", "hello")
	engine.Artifacts = []string{"init"}

	_, err = engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	data, err := os.ReadFile(filepath.Join(root, "alpha", "main.cpp"))
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(data)).Should(Equal("// 000427 hello\n"))

	_, err = os.Stat(filepath.Join(root, "<PROJ>"))
	g.Expect(os.IsNotExist(err)).Should(BeTrue())
	_, err = os.Stat(filepath.Join(root, "init"))
	g.Expect(os.IsNotExist(err)).Should(BeTrue())
}

func TestEngine_RealFileSystemDryRun(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
	mustWrite(t, filepath.Join(root, ".gitignore"), "")
	mainPath := filepath.Join(root, "<PROJ>", "main.cpp")
	mustWrite(t, mainPath, "// __PROJID__ <EXEC>\n")
	g.Expect(os.Chtimes(mainPath, epoch, epoch)).Should(Succeed())

	engine, err := initengine.NewEngine(root)
	g.Expect(err).ShouldNot(HaveOccurred())
	defer engine.Close()

	engine.Rules = rules.Placeholders("000427", "alpha", "hello")
	engine.Simulate = true

	_, err = engine.Run()
	g.Expect(err).ShouldNot(HaveOccurred())

	info, err := os.Stat(mainPath)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(info.ModTime().Equal(epoch)).Should(BeTrue())

	data, err := os.ReadFile(mainPath)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(data)).Should(Equal("// __PROJID__ <EXEC>\n"))
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
