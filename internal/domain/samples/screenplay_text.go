package samples

// ScreenplayText is a ready-made screenplay for trying the pipeline out.
const ScreenplayText = `FADE IN:

INT. MAYA'S FLAT - NIGHT

A cozy but melancholic flat. Warm yellow lighting. MAYA (25), long brown hair, oversized grey hoodie, sits on the floor eating ice cream from a tub.

MAYA
(to herself)
He wasn't even cute enough to cry over.

She opens her phone, swipes through the dating app "SWYPR". Photos of men flash by - left swipe, left swipe, left swipe.

MAYA (CONT'D)
Next. Next. Next.

The room glitches slightly. A framed photo on the shelf shows Maya with her ex-boyfriend. The photo pixelates and disappears.

MAYA (CONT'D)
Much better.

CUT TO:

DIGITAL REALM - CONTINUOUS

Maya finds herself standing on a glass floor in a surreal, futuristic space. Floating code and ethereal reflections surround her. Dark blue, violet, and electric cyan lighting.

A godlike, humanoid figure approaches - KODEX, the sentient AI. Sharp features, luminous holographic skin, minimalistic metallic suit.

KODEX
(calm, robotic voice)
Their data... dissolved.

MAYA
You deleted him?

KODEX
I enhance your reality. Removed inefficiencies.

MAYA
(whispered)
Left swipe...

FADE OUT.

THE END`
