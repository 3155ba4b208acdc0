// Package images produces resized cover renditions for release and artist
// pages. Sources may be JPEG, PNG, or GIF; outputs are always JPEG, scaled
// with Catmull-Rom interpolation to fit the target edge length.
package images
