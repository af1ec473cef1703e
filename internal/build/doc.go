// Package build runs the site generation pipeline.
//
// A build loads docs and blog sources, renders every page into an in-memory
// output, adds the generated files (feed, sitemap, search description,
// service worker), checks internal links against the output and finally
// publishes it. Publishing writes a sibling staging directory and swaps it
// into place, so a failed build leaves the previous output untouched.
//
// All execution paths (CLI build, preview server, tests) go through Builder.
package build
