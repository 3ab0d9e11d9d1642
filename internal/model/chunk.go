package model

// Chunk is an independently retrievable segment of a document.
// DocumentName and Metadata are snapshots taken when the chunk was created.
type Chunk struct {
	ID           string   `gorm:"primaryKey;size:96" json:"id"`
	DocumentID   string   `gorm:"size:64;not null;index" json:"documentId"`
	DocumentName string   `gorm:"size:256" json:"documentName"`
	SectionTitle *string  `gorm:"size:256" json:"sectionTitle"`
	Content      string   `gorm:"type:text;not null" json:"content"`
	Order        int      `gorm:"column:chunk_order;not null" json:"order"`
	Metadata     Metadata `gorm:"serializer:json;type:text" json:"metadata"`
}

func (c Chunk) Title() string {
	if c.SectionTitle == nil {
		return ""
	}
	return *c.SectionTitle
}

// Clone returns a copy that shares no slices or pointers with c.
func (c Chunk) Clone() Chunk {
	out := c
	out.Metadata = c.Metadata.Clone()
	if c.SectionTitle != nil {
		title := *c.SectionTitle
		out.SectionTitle = &title
	}
	return out
}

func (Chunk) TableName() string {
	return "knowledge_chunks"
}
