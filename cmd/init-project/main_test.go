package main

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("init-project", func() {
	var (
		root    string
		logFile string
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
	)

	write := func(rel, content string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	}

	read := func(rel string) string {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	exists := func(rel string) bool {
		_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
		return err == nil
	}

	invoke := func(args ...string) int {
		args = append(args, "--root", root, "--log-file", logFile, "--no-color")
		return run(args, stdout, stderr)
	}

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		logFile = filepath.Join(GinkgoT().TempDir(), "init-project.log")
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}

		write(".git/HEAD", "ref: refs/heads/main\n")
		write(".gitignore", "^\\./build(/|$)\n")
		write("<PROJ>/main.cpp", "// __PROJID__ <EXEC>\n")
		write("<PROJ>/<EXEC>.h", "#pragma once\n")
		write("README.md", "# <PROJ>\n")
		write("build/<PROJ>.o", "<PROJ>")
		write("init", "#!/bin/sh\n")
	})

	Describe("a real run", func() {
		It("renames entries and rewrites placeholders", func() {
			Expect(invoke("alpha", "hello", "-n", "427")).To(Equal(0), stderr.String())

			Expect(read("alpha/main.cpp")).To(Equal("// 000427 hello\n"))
			Expect(exists("alpha/hello.h")).To(BeTrue())
			Expect(exists("<PROJ>")).To(BeFalse())
			Expect(read("README.md")).To(Equal("# alpha\n"))

			Expect(stdout.String()).To(ContainSubstring(
				"Initiated project with project id 000427 name alpha and executable name hello"))
			Expect(stdout.String()).NotTo(ContainSubstring("= Move operations"))
			Expect(stdout.String()).NotTo(ContainSubstring("= Replace operations"))
		})

		It("leaves entries matched by the ignore file alone", func() {
			Expect(invoke("alpha", "hello", "-n", "1")).To(Equal(0), stderr.String())

			Expect(read("build/<PROJ>.o")).To(Equal("<PROJ>"))
			Expect(read(".git/HEAD")).To(Equal("ref: refs/heads/main\n"))
		})

		It("removes the init tool afterwards", func() {
			Expect(invoke("alpha", "hello")).To(Equal(0), stderr.String())
			Expect(exists("init")).To(BeFalse())
			Expect(stdout.String()).To(ContainSubstring("Removed ./init"))
		})

		It("keeps the init tool with --no-self-destruct", func() {
			Expect(invoke("alpha", "hello", "-q")).To(Equal(0), stderr.String())
			Expect(exists("init")).To(BeTrue())
		})

		It("applies placeholders and excludes from the rules file", func() {
			write(".init-project.yaml", "placeholders:\n  - token: \"<AUTHOR>\"\n    value: jane\nexclude:\n  - \"vendor/**\"\n")
			write("AUTHORS", "<AUTHOR>\n")
			write("vendor/<AUTHOR>.txt", "<AUTHOR>")

			Expect(invoke("alpha", "hello")).To(Equal(0), stderr.String())

			Expect(read("AUTHORS")).To(Equal("jane\n"))
			Expect(read("vendor/<AUTHOR>.txt")).To(Equal("<AUTHOR>"))
			Expect(exists(".init-project.yaml")).To(BeFalse())
		})

		It("leaves an explicit rules file inside the root untouched", func() {
			rulesBody := "placeholders:\n  - token: \"<AUTHOR>\"\n    value: jane\n"
			write("<PROJ>-rules.yaml", rulesBody)
			write("AUTHORS", "<AUTHOR>\n")

			Expect(invoke("alpha", "hello", "--rules-file", filepath.Join(root, "<PROJ>-rules.yaml"))).
				To(Equal(0), stderr.String())

			Expect(read("AUTHORS")).To(Equal("jane\n"))
			Expect(read("<PROJ>-rules.yaml")).To(Equal(rulesBody))
			Expect(exists("alpha-rules.yaml")).To(BeFalse())
		})
	})

	Describe("a dry run", func() {
		It("previews the changes and touches nothing", func() {
			past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			Expect(os.Chtimes(filepath.Join(root, "<PROJ>", "main.cpp"), past, past)).To(Succeed())

			Expect(invoke("alpha", "hello", "-n", "427", "-d", "--show-tree")).To(Equal(0), stderr.String())

			Expect(read("<PROJ>/main.cpp")).To(Equal("// __PROJID__ <EXEC>\n"))
			Expect(exists("init")).To(BeTrue())

			info, err := os.Stat(filepath.Join(root, "<PROJ>", "main.cpp"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.ModTime().Equal(past)).To(BeTrue())

			out := stdout.String()
			Expect(out).To(HavePrefix("Running in dry-run mode:\n= Move operations    =\n"))
			Expect(out).To(ContainSubstring("  ./<PROJ> ⇢ ./alpha\n"))
			Expect(out).To(ContainSubstring("  ./alpha/<EXEC>.h ⇢ ./alpha/hello.h\n"))
			Expect(out).To(ContainSubstring("= Replace operations ="))
			Expect(out).To(ContainSubstring("(dry run) Applied RegEx changes to ./<PROJ>/main.cpp"))
			Expect(out).To(ContainSubstring("hello.h"))
		})
	})

	Describe("a dry run with --diff", func() {
		It("shows what each rewrite would change", func() {
			Expect(invoke("alpha", "hello", "-n", "427", "-d", "--diff")).To(Equal(0), stderr.String())

			out := stdout.String()
			Expect(out).To(ContainSubstring("--- a/<PROJ>/main.cpp\n+++ b/<PROJ>/main.cpp\n"))
			Expect(out).To(ContainSubstring("-// __PROJID__ <EXEC>\n+// 000427 hello\n"))
			Expect(read("<PROJ>/main.cpp")).To(Equal("// __PROJID__ <EXEC>\n"))
		})
	})

	Describe("failures", func() {
		It("refuses a root without .git", func() {
			Expect(os.RemoveAll(filepath.Join(root, ".git"))).To(Succeed())

			Expect(invoke("alpha", "hello")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("missing root marker .git"))
			Expect(exists("<PROJ>")).To(BeTrue())
		})

		It("refuses a malformed ignore file", func() {
			write(".gitignore", "(unclosed\n")

			Expect(invoke("alpha", "hello")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring(".gitignore line 1"))
			Expect(exists("<PROJ>")).To(BeTrue())
		})

		It("rejects invalid names before touching the tree", func() {
			Expect(invoke("1alpha", "hello")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("must start with a letter"))
			Expect(exists("<PROJ>")).To(BeTrue())
		})

		It("fails on a missing explicit rules file", func() {
			Expect(invoke("alpha", "hello", "--rules-file", filepath.Join(root, "nope.yaml"))).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("failed to open rules file"))
		})
	})

	Describe("help and version", func() {
		It("prints usage and exits zero", func() {
			Expect(run([]string{"--help"}, stdout, stderr)).To(Equal(0))
			Expect(stdout.String()).To(ContainSubstring("PROJECT_NAME"))
		})

		It("prints the version", func() {
			Expect(run([]string{"--version"}, stdout, stderr)).To(Equal(0))
			Expect(stdout.String()).To(ContainSubstring("init-project"))
		})
	})
})
