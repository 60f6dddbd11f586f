// Package browser drives the institution's browser-rendered login with a
// headless Chromium instance and classifies what the page shows.
//
// One shared browser process is launched lazily; each linking session gets an
// isolated incognito context and page so cookies never leak between users.
// The driver performs the mechanical steps (navigate, fill, submit, settle)
// and hands a snapshot of the settled page to a Classifier, which decides
// whether the login succeeded, failed, or raised a number-matching challenge.
//
// # Architecture boundaries
//
// Nothing in this package interprets page content for callers: raw page text
// and URLs stay inside classification and are never returned upstream except
// as coarse outcome codes and the extracted match code.
package browser
