// Package templatemailer sends emails rendered from templates that live in
// template packages.
//
// A template package is a resource tree (a directory, an in-memory fs.FS or
// an S3 prefix) with templates below Private/EmailTemplates. Packages are
// registered with a priority key; the first package that provides
// <name>.html wins, so an application package can override the templates of
// a shared one.
//
// # Quick Start
//
//	conf, err := settings.Load("settings.yaml")
//	if err != nil {
//	    return err
//	}
//
//	svc, err := templatemailer.New(smtp.New(smtpConfig), conf,
//	    templatemailer.WithLoader(resource.NewDirLoader("./packages")),
//	    templatemailer.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ok, err := svc.SendTemplateEmail(ctx, "Welcome", "Welcome aboard",
//	    []string{"alice@example.com"},
//	    map[string]any{"name": "Alice"},
//	    templatemailer.FromSender("support"),
//	    templatemailer.WithBCC("audit@example.com"),
//	)
//
// # Settings
//
//	TemplateMailer:
//	  senderAddresses:
//	    default: { address: noreply@example.com, name: Example }
//	    support: { address: support@example.com, name: Example Support }
//	  templatePackages:
//	    10: Acme.Site
//	    20: Acme.Base
//	  defaultTemplateVariables:
//	    baseUri: Acme.Site.baseUri
//	  logging:
//	    sendingErrors: log   # none | log | throw
//	    sendingSuccess: none # none | log
//	  plaintextFallback: true
//	  cacheTemplates: true
//
// # Templates
//
// Every template has an html variant and usually a txt variant:
//
//	Private/EmailTemplates/Welcome.html
//	Private/EmailTemplates/Welcome.txt
//	Private/EmailTemplates/Layouts/Default.html
//	Private/EmailTemplates/Partials/Footer.html
//
// html and htm templates are rendered with html/template, all other formats
// with text/template. Both have the sprig functions and a markdown function
// that understands a button syntax:
//
//	{{ markdown "[!button|Verify email](https://example.com/verify)" }}
//
// The html body has its <style> rules inlined. Without a txt variant the
// plaintext body is derived from the html one.
//
// # Results
//
// SendTemplateEmail returns true when every recipient was accepted. Failed
// and partial deliveries return false and are logged according to
// logging.sendingErrors. Only the throw policy turns a transport failure into
// an error matching ErrTransport.
package templatemailer
