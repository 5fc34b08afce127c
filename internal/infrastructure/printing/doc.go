// Package printing renders order receipts to PDF.
//
// ReceiptPrinter fills an HTML template with the order, formats money and
// dates for the shop locale and hands the page to a PDFRenderer.
// ChromedpRenderer prints through headless Chrome, either a local browser or
// a remote DevTools endpoint.
package printing
