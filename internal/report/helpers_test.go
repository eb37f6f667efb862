package report_test

import "github.com/joe/init-project/pkg/errors"

func enrich(err error) error {
	return errors.NewEnricher().Enrich(err, "")
}
