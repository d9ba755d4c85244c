package variant

// Row is one normalized annotation row for a RefSNP identifier.
type Row struct {
	Identifier        string // requested rs identifier, e.g. "rs429358"
	Type              Type
	Description       string
	Deleted           string
	Inserted          string
	AlleleCount       int64
	TotalCount        int64
	ObservedFrequency float64
	Diseases          string
	Significance      string
	Submissions       int64
	GeneLocus         string
	GeneName          string
}

// Key identifies a distinct variant within one record.
type Key struct {
	Type        Type
	Description string
	Deleted     string
	Inserted    string
}

// Key returns the grouping key of the row.
func (r Row) Key() Key {
	return Key{Type: r.Type, Description: r.Description, Deleted: r.Deleted, Inserted: r.Inserted}
}

func (k Key) less(o Key) bool {
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	if k.Description != o.Description {
		return k.Description < o.Description
	}
	if k.Deleted != o.Deleted {
		return k.Deleted < o.Deleted
	}
	return k.Inserted < o.Inserted
}

// Frequency returns allele/total, or 0 when total is 0.
func Frequency(allele, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(allele) / float64(total)
}
