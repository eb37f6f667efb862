package main

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInitProject(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "init-project Suite")
}
