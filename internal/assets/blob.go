package assets

// Blob holds the bytes of a media asset. It is never mutated after creation;
// transformations produce a new Blob.
type Blob struct {
	data []byte
	path string
}

// NewBlob takes ownership of data. The caller must not modify data afterwards.
func NewBlob(data []byte) *Blob {
	return &Blob{data: data}
}

// NewBlobAt is NewBlob for bytes that are also stored at path on disk.
func NewBlobAt(data []byte, path string) *Blob {
	return &Blob{data: data, path: path}
}

// Bytes returns the blob contents. The returned slice must be treated as read-only.
func (b *Blob) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Size returns the byte size of the blob.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.data))
}

// Path returns the on-disk location of the bytes, or "" if they only live in memory.
func (b *Blob) Path() string {
	if b == nil {
		return ""
	}
	return b.path
}

// Prefix returns up to n leading bytes.
func (b *Blob) Prefix(n int) []byte {
	data := b.Bytes()
	if len(data) > n {
		return data[:n]
	}
	return data
}
