/*
Package dsl provides a fluent builder for course outlines.

It is useful for seeding an authority, writing tests, and building outlines
programmatically without YAML or JSON files. Categories follow from nesting:
children of the course are sections, their children subsections, and so on.

Example usage:

	b := dsl.New("course-v1", "Go 101")

	intro := b.Course().Add("intro", "Introduction").Published()
	intro.Add("setup", "Setup").Prerequisite()
	intro.Add("tour", "Tour").GatedBy("setup", "80", "100")

	b.Course().Add("advanced", "Advanced").StaffOnly()

	spec, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	// pass spec to outline.New or authority.Service.Import
*/
package dsl
