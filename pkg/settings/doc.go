// Package settings loads a process-wide configuration tree from YAML files.
//
// Files are merged in the order given: maps merge recursively, any other
// value from a later file replaces the earlier one. String values of the
// form %env:NAME% are replaced with the value of the environment variable
// NAME (empty when unset).
//
// Values are addressed with dotted paths:
//
//	s, err := settings.Load("config/Settings.yaml", "config/Settings.Production.yaml")
//	if err != nil {
//		return err
//	}
//	uri, ok := s.Get("Acme.Site.baseUri")
//
//	var cfg smtp.Config
//	err = s.Decode("TemplateMailer.transport.smtp", &cfg)
package settings
