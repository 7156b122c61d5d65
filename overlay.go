package deckpdf

// removeOverlaysScript deletes dialogs, popovers and small floating
// elements that would otherwise end up in the screenshots. Large fixed
// layers and anything inside the slide player are kept. It evaluates to
// the number of removed elements.
const removeOverlaysScript = `(() => {
	let removed = 0;
	const selectors = [
		'[role="dialog"]',
		'[class*="modal" i]',
		'[class*="popup" i]',
		'[class*="popover" i]',
		'[class*="tooltip" i]',
		'[class*="drawer" i]',
	];
	for (const sel of selectors) {
		document.querySelectorAll(sel).forEach(el => { el.remove(); removed++; });
	}
	document.querySelectorAll('*').forEach(el => {
		const style = window.getComputedStyle(el);
		if ((style.position === 'fixed' || style.position === 'absolute') &&
			Number(style.zIndex) > 100 &&
			!el.closest('canvas') &&
			!el.closest('[class*="slide" i]') &&
			!el.closest('[class*="player" i]')) {
			const rect = el.getBoundingClientRect();
			if (rect.width < window.innerWidth * 0.5 && rect.height < window.innerHeight * 0.5) {
				el.remove();
				removed++;
			}
		}
	});
	return removed;
})()`
