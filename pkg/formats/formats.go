// Package formats reads heightmap sources and writes the texture
// containers consumed by the terrain renderer.
//
// Supported inputs are 16-bit grayscale images (PNG, TIFF, BMP) and
// Ragnarok Online GAT altitude tables. Output is KTX 2.0.
package formats
