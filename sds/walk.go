package sds

// WalkFunc is called for each dataset during traversal.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(ds *Dataset) error

// Walk visits every dataset of f in creation order.
func Walk(f *File, fn WalkFunc) error {
	for _, name := range f.Datasets() {
		ds, err := f.OpenDataset(name)
		if err != nil {
			return err
		}
		if err := fn(ds); err != nil {
			return err
		}
	}
	return nil
}
