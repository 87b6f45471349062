// Package loader reads application directories: an optional app.yaml
// manifest plus one .hbs template per component.
//
//	root: Main
//	title: Hello
//	state:
//	  Main:
//	    salutation: Glimmer
package loader
