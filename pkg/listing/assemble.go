package listing

// Assemble merges page metadata, extracted fields and collected image URLs into
// a Record. It does not fill defaults: a missing title must already carry
// NoTitle.
func Assemble(meta PageMeta, fields Fields, images []string) Record {
	urls := make([]string, len(images))
	copy(urls, images)

	return Record{
		SourceURL:        meta.SourceURL,
		Title:            meta.Title,
		Description:      meta.Description,
		ImageURLs:        urls,
		ImageCount:       len(urls),
		BedroomCount:     fields.Bedrooms,
		BedCount:         fields.Beds,
		BathroomCount:    fields.Bathrooms,
		PropertyFeatures: fields.Features,
	}
}

// WithImages returns a copy of r whose image list is replaced, e.g. by the
// validity-filtered subset. ImageCount keeps the collector's count.
func (r Record) WithImages(images []string) Record {
	urls := make([]string, len(images))
	copy(urls, images)
	r.ImageURLs = urls
	return r
}
