// Package rsv streams RSV rows to and from any io.Writer or io.Reader.
//
// Writing:
//
//	err := rsv.WithFile("readings.rsv", func(w *rsv.Writer) error {
//	    for _, r := range readings {
//	        if err := w.Encode(r); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
//
// Reading:
//
//	r, err := rsv.Open("readings.rsv")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for rec, err := range rsv.Records[Reading](r) {
//	    if err != nil {
//	        // the row is skipped, the next one is still read
//	        continue
//	    }
//	    use(rec)
//	}
//
// Rows are never loaded more than one at a time. Writers and readers are not
// safe for concurrent use.
package rsv
