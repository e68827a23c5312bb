package arbiter_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mempoolsim/timing/arbiter"
	"github.com/sarchlab/mempoolsim/timing/integrity"
)

var _ = Describe("Config", func() {
	It("should default to the tile response arbiter", func() {
		c := arbiter.DefaultConfig()

		Expect(c.NumEntries).To(Equal(4))
		Expect(c.NumEnq).To(Equal(2))
		Expect(c.NumOut).To(Equal(2))
		Expect(c.Validate()).To(Succeed())
	})

	DescribeTable("should refuse unsupported values",
		func(mutate func(*arbiter.Config), field string) {
			c := arbiter.DefaultConfig()
			mutate(c)

			_, err := arbiter.New(c)

			var cfgErr *integrity.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal(field))
		},
		Entry("three enqueue lanes", func(c *arbiter.Config) { c.NumEnq = 3 }, "NumEnq"),
		Entry("no enqueue lane", func(c *arbiter.Config) { c.NumEnq = 0 }, "NumEnq"),
		Entry("no output lane", func(c *arbiter.Config) { c.NumOut = 0 }, "NumOut"),
		Entry("no port", func(c *arbiter.Config) { c.NumEntries = 0 }, "NumEntries"),
		Entry("empty payload", func(c *arbiter.Config) { c.PayloadBits = 0 }, "PayloadBits"),
	)

	It("should round-trip through a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "arbiter.json")

		c := arbiter.DefaultConfig()
		c.NumEntries = 16
		c.NumOut = 4
		Expect(c.SaveConfig(path)).To(Succeed())

		loaded, err := arbiter.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should keep defaults for fields missing from the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "arbiter.json")
		Expect(os.WriteFile(path, []byte(`{"num_entries": 8}`), 0644)).To(Succeed())

		loaded, err := arbiter.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.NumEntries).To(Equal(8))
		Expect(loaded.NumOut).To(Equal(2))
	})

	It("should report an unsupported configuration in a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "arbiter.json")
		Expect(os.WriteFile(path, []byte(`{"num_enq": 4}`), 0644)).To(Succeed())

		_, err := arbiter.LoadConfig(path)

		var cfgErr *integrity.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
	})

	It("should fail on a missing file", func() {
		_, err := arbiter.LoadConfig(filepath.Join(GinkgoT().TempDir(), "nope.json"))
		Expect(err).To(HaveOccurred())
	})
})
