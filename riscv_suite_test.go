package riscv

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRiscv(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "riscv boundary scenarios")
}
