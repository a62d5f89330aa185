package domain

// MaxAdvertisementBatch is the capacity of an AdvertisementBatch.
const MaxAdvertisementBatch = 16

// AdvertisementBatch is an insertion-ordered group of advertisements waiting
// to be sent together. It never holds more than MaxAdvertisementBatch entries.
type AdvertisementBatch struct {
	entries [MaxAdvertisementBatch]Advertisement
	count   int
}

// NewAdvertisementBatch creates a new empty batch.
func NewAdvertisementBatch() *AdvertisementBatch {
	return &AdvertisementBatch{}
}

// Add appends an advertisement. It returns false without modifying the batch
// when the batch is full.
func (b *AdvertisementBatch) Add(adv Advertisement) bool {
	if b.count == MaxAdvertisementBatch {
		return false
	}
	b.entries[b.count] = adv
	b.count++
	return true
}

// Size returns the number of advertisements in the batch.
func (b *AdvertisementBatch) Size() int {
	return b.count
}

// Empty returns true if the batch has no advertisements.
func (b *AdvertisementBatch) Empty() bool {
	return b.count == 0
}

// Full returns true if no further advertisement fits.
func (b *AdvertisementBatch) Full() bool {
	return b.count == MaxAdvertisementBatch
}

// Entries returns the advertisements in insertion order. The slice aliases
// the batch and is only valid until the next Add or Reset.
func (b *AdvertisementBatch) Entries() []Advertisement {
	return b.entries[:b.count]
}

// Reset clears the batch for reuse.
func (b *AdvertisementBatch) Reset() {
	for i := 0; i < b.count; i++ {
		b.entries[i] = Advertisement{}
	}
	b.count = 0
}
