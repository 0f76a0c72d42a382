package boleto

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"
)

var _ = Describe("BoltStore", func() {
	var (
		tmpDir string
		dbPath string
		store  *BoltStore
	)

	newBoletoFixture := func(id string, value float64, status Status) *Boleto {
		return &Boleto{
			ID:        id,
			Name:      "Conta " + id,
			Value:     value,
			DueDate:   "2025-03-10",
			Barcode:   "123.456",
			Issuer:    "ACME",
			Status:    status,
			CreatedAt: 1700000000000,
		}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		store, err = NewBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Add", func() {
		It("prepends records so the newest comes first", func() {
			Expect(store.Add(newBoletoFixture("b1", 10, StatusPending))).To(Succeed())
			Expect(store.Add(newBoletoFixture("b2", 20, StatusPending))).To(Succeed())

			all := store.List(FilterAll)
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal("b2"))
			Expect(all[1].ID).To(Equal("b1"))
		})
	})

	Describe("Get", func() {
		When("the boleto exists", func() {
			BeforeEach(func() {
				Expect(store.Add(newBoletoFixture("b1", 10, StatusPending))).To(Succeed())
			})

			It("returns the record", func() {
				b, ok := store.Get("b1")
				Expect(ok).To(BeTrue())
				Expect(b.ID).To(Equal("b1"))
			})
		})

		When("the boleto is absent", func() {
			It("reports not found", func() {
				_, ok := store.Get("nonexistent")
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			Expect(store.Add(newBoletoFixture("b1", 100, StatusPending))).To(Succeed())
			Expect(store.Add(newBoletoFixture("b2", 50, StatusPaid))).To(Succeed())
			Expect(store.Add(newBoletoFixture("b3", 25, StatusPending))).To(Succeed())
		})

		It("returns the full collection for the all filter", func() {
			ids := []string{}
			for _, b := range store.List(FilterAll) {
				ids = append(ids, b.ID)
			}
			Expect(ids).To(Equal([]string{"b3", "b2", "b1"}))
		})

		It("returns exactly the pending subset, order preserved", func() {
			ids := []string{}
			for _, b := range store.List(FilterPending) {
				ids = append(ids, b.ID)
			}
			Expect(ids).To(Equal([]string{"b3", "b1"}))
		})

		It("returns exactly the paid subset", func() {
			paid := store.List(FilterPaid)
			Expect(paid).To(HaveLen(1))
			Expect(paid[0].ID).To(Equal("b2"))
		})

		It("treats an empty filter as all", func() {
			Expect(store.List("")).To(HaveLen(3))
		})
	})

	Describe("ToggleStatus", func() {
		BeforeEach(func() {
			Expect(store.Add(newBoletoFixture("b1", 10, StatusPending))).To(Succeed())
		})

		It("flips pending to paid", func() {
			b, err := store.ToggleStatus("b1")
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Status).To(Equal(StatusPaid))
		})

		It("returns the record to its original status after two toggles", func() {
			_, err := store.ToggleStatus("b1")
			Expect(err).NotTo(HaveOccurred())
			_, err = store.ToggleStatus("b1")
			Expect(err).NotTo(HaveOccurred())

			b, ok := store.Get("b1")
			Expect(ok).To(BeTrue())
			Expect(b.Status).To(Equal(StatusPending))
		})

		It("is a no-op for an absent id", func() {
			b, err := store.ToggleStatus("nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(BeNil())
			Expect(store.List(FilterAll)).To(HaveLen(1))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			Expect(store.Add(newBoletoFixture("b1", 10, StatusPending))).To(Succeed())
			Expect(store.Add(newBoletoFixture("b2", 20, StatusPending))).To(Succeed())
		})

		It("removes the matching record", func() {
			removed, err := store.Delete("b1")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())
			_, ok := store.Get("b1")
			Expect(ok).To(BeFalse())
		})

		It("is idempotent: the second delete removes nothing", func() {
			removed, err := store.Delete("b1")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())
			Expect(store.List(FilterAll)).To(HaveLen(1))

			removed, err = store.Delete("b1")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeFalse())
			Expect(store.List(FilterAll)).To(HaveLen(1))
		})
	})

	Describe("TotalPending", func() {
		BeforeEach(func() {
			Expect(store.Add(newBoletoFixture("b1", 100, StatusPending))).To(Succeed())
			Expect(store.Add(newBoletoFixture("b2", 50, StatusPaid))).To(Succeed())
			Expect(store.Add(newBoletoFixture("b3", 25, StatusPending))).To(Succeed())
		})

		It("sums value over pending records only", func() {
			Expect(store.TotalPending()).To(Equal(125.0))
		})

		It("drops a value from the total once its record is paid", func() {
			_, err := store.ToggleStatus("b1")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.TotalPending()).To(Equal(25.0))
		})
	})

	Describe("record isolation", func() {
		BeforeEach(func() {
			Expect(store.Add(newBoletoFixture("b1", 10, StatusPending))).To(Succeed())
		})

		It("keeps a record returned by Get unaffected by later mutations", func() {
			held, ok := store.Get("b1")
			Expect(ok).To(BeTrue())

			_, err := store.ToggleStatus("b1")
			Expect(err).NotTo(HaveOccurred())

			Expect(held.Status).To(Equal(StatusPending))
		})

		It("does not let writes through a listed record reach the store", func() {
			store.List(FilterAll)[0].Status = StatusPaid

			b, ok := store.Get("b1")
			Expect(ok).To(BeTrue())
			Expect(b.Status).To(Equal(StatusPending))
			Expect(store.TotalPending()).To(Equal(10.0))
		})

		It("detaches the stored record from the one passed to Add", func() {
			fixture := newBoletoFixture("b2", 20, StatusPending)
			Expect(store.Add(fixture)).To(Succeed())
			fixture.Value = 999

			b, ok := store.Get("b2")
			Expect(ok).To(BeTrue())
			Expect(b.Value).To(Equal(20.0))
		})

		It("tolerates readers holding records while another goroutine toggles", func() {
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				for i := 0; i < 100; i++ {
					_, err := store.ToggleStatus("b1")
					Expect(err).NotTo(HaveOccurred())
				}
			}()
			for i := 0; i < 100; i++ {
				if b, ok := store.Get("b1"); ok {
					_ = b.Status
				}
				for _, b := range store.List(FilterAll) {
					_ = b.Status
				}
			}
			Eventually(done).Should(BeClosed())
		})
	})

	Describe("persistence round-trip", func() {
		It("reloads a collection deep-equal to the one persisted", func() {
			withDoc := newBoletoFixture("b1", 150.5, StatusPending)
			withDoc.PDFData = "data:application/pdf;base64,JVBERi0="
			withoutDoc := newBoletoFixture("b2", 42, StatusPaid)

			Expect(store.Add(withDoc)).To(Succeed())
			Expect(store.Add(withoutDoc)).To(Succeed())
			before := store.List(FilterAll)
			Expect(store.Close()).To(Succeed())

			reopened, err := NewBoltStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			Expect(reopened.List(FilterAll)).To(Equal(before))
		})
	})

	Describe("load failure", func() {
		It("starts with an empty collection when the stored blob is corrupt", func() {
			Expect(store.Add(newBoletoFixture("b1", 10, StatusPending))).To(Succeed())
			Expect(store.Close()).To(Succeed())

			db, err := bbolt.Open(dbPath, 0600, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Update(func(tx *bbolt.Tx) error {
				return tx.Bucket([]byte(bucketName)).Put([]byte(collectionKey), []byte("not json"))
			})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			Expect(reopened.List(FilterAll)).To(BeEmpty())
		})
	})
})
