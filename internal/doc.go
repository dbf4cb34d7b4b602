// Package internal provides the core types and implementation of templatemailer.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/templatemailer" instead, which re-exports the public API.
//
// # Components
//
//   - Service: entry point wiring the components below, built once by New
//   - SenderResolver (Config.resolveSender): explicit address or configured sender name
//   - TemplateLocator: first template package providing Private/EmailTemplates/<name>.html
//   - BodyRenderer: html/template or text/template rendering with layouts, partials,
//     sprig functions, markdown and CSS inlining
//   - MailDispatcher: transport call, outcome classification and logging policies
//
// # Template packages
//
// A template package is a resource tree opened through a resource.Loader:
//
//	Private/EmailTemplates/
//	    Welcome.html
//	    Welcome.txt
//	    Layouts/Default.html
//	    Partials/Footer.html
//
// Layouts and partials are available to every template of the same format as
// "Layouts/<name>" and "Partials/<name>". Layouts are parsed before the
// template, so a template overrides the blocks a layout declares:
//
//	{{/* Layouts/Default.html */}}
//	<html><body>{{block "content" .}}{{end}}{{template "Partials/Footer" .}}</body></html>
//
//	{{/* Welcome.html */}}
//	{{define "content"}}<p>Hello {{.name}}</p>{{end}}{{template "Layouts/Default" .}}
//
// A template may start with YAML frontmatter. Its values are defaults that
// every other variable source overrides.
//
// # Configuration
//
// Settings are read once from a ConfigurationSource below the root path
// (default "TemplateMailer"):
//
//	TemplateMailer:
//	  senderAddresses:
//	    default: { address: noreply@example.com, name: Example }
//	  templatePackages:
//	    10: Acme.Site
//	    20: Acme.Base
//	  defaultTemplateVariables:
//	    baseUri: Acme.Site.baseUri
//	  logging:
//	    sendingErrors: log
//	    sendingSuccess: none
//
// Default template variables are resolved against the source on every send.
package internal
